package signal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// SignalType is the `type` tag of a signal envelope.
type SignalType string

func (t SignalType) String() string {
	return string(t)
}

const (
	NodeLogin          = SignalType("node.login")
	NodeReady          = SignalType("node.ready")
	NodeStarted        = SignalType("node.started")
	NodeStopped        = SignalType("node.stopped")
	MediaServerStarted = SignalType("mediaserver.started")
)

// Event is the decoded payload of an envelope. The concrete type is selected
// by the envelope type; payloads of types this package does not know about
// are kept as *UnknownEvent.
type Event interface {
	signalEvent()
}

// Envelope is a single signal as received on the wire.
type Envelope struct {
	Type  SignalType
	Event Event
	// Raw is the undecoded `event` payload.
	Raw json.RawMessage
	// Seq is the position of the envelope among all envelopes of its type
	// received on the connection, starting at 0.
	Seq        int
	ReceivedAt time.Time
}

// String returns the envelope in its wire form.
func (e *Envelope) String() string {
	return fmt.Sprintf(`{"type":%q,"event":%s}`, e.Type, e.Raw)
}

type rawEnvelope struct {
	Type  SignalType      `json:"type"`
	Event json.RawMessage `json:"event"`
}

// UnknownEvent keeps the payload of a signal type without a dedicated Go type.
type UnknownEvent struct {
	// Value is the generically decoded payload.
	Value interface{}
	// Fields is set when the payload is a JSON object.
	Fields map[string]interface{}
	// DecodeErr is set when the type is known but its payload did not match
	// the expected shape.
	DecodeErr error
}

func (*UnknownEvent) signalEvent() {}

// Get returns a top level field of the payload.
func (u *UnknownEvent) Get(key string) (interface{}, bool) {
	v, ok := u.Fields[key]
	return v, ok
}

// NodeLoginEvent is sent when a login attempt finishes.
type NodeLoginEvent struct {
	Error    string                 `json:"error"`
	Settings map[string]interface{} `json:"settings"`
	Account  map[string]interface{} `json:"account"`
}

func (*NodeLoginEvent) signalEvent() {}

// PublicKey returns the chat public key of the logged in account.
func (e *NodeLoginEvent) PublicKey() string {
	v, _ := e.Settings["public-key"].(string)
	return v
}

// KeyUID returns the key uid of the logged in account.
func (e *NodeLoginEvent) KeyUID() string {
	v, _ := e.Account["key-uid"].(string)
	return v
}

var errEmptyType = errors.New("signal envelope without type")

// Decode parses every envelope contained in a websocket frame. status-backend
// sends one envelope per frame, but newline delimited or concatenated
// envelopes are accepted as well. Envelopes decoded before a malformed one are
// returned together with the error.
func Decode(frame []byte) ([]*Envelope, error) {
	var envelopes []*Envelope
	decoder := json.NewDecoder(bytes.NewReader(frame))
	for {
		var raw rawEnvelope
		err := decoder.Decode(&raw)
		if err == io.EOF {
			return envelopes, nil
		}
		if err != nil {
			return envelopes, fmt.Errorf("decode signal envelope: %w", err)
		}
		if raw.Type == "" {
			return envelopes, errEmptyType
		}
		envelopes = append(envelopes, &Envelope{
			Type:  raw.Type,
			Event: decodeEvent(raw.Type, raw.Event),
			Raw:   raw.Event,
		})
	}
}

func decodeEvent(typ SignalType, payload json.RawMessage) Event {
	var event Event
	switch typ {
	case NodeLogin:
		event = &NodeLoginEvent{}
	case Wallet:
		event = &WalletEvent{}
	case SuggestedRoutes:
		event = &SuggestedRoutesEvent{}
	case SignRouterTransactions:
		event = &RouterSignTransactionsEvent{}
	case RouterSendingTransactionsStarted:
		event = &RouterSendingTransactionsStartedEvent{}
	case RouterTransactionsSent:
		event = &RouterTransactionsSentEvent{}
	case TransactionStatusChanged:
		event = &TransactionStatusChangedEvent{}
	case MessagesNew:
		event = &MessagesNewEvent{}
	case MessageDelivered:
		event = &MessageDeliveredEvent{}
	case CommunityInfoFound:
		event = &CommunityInfoFoundEvent{}
	default:
		return decodeUnknown(payload, nil)
	}

	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return event
	}
	if err := json.Unmarshal(payload, event); err != nil {
		return decodeUnknown(payload, err)
	}
	return event
}

func decodeUnknown(payload json.RawMessage, decodeErr error) *UnknownEvent {
	u := &UnknownEvent{DecodeErr: decodeErr}
	if len(payload) == 0 {
		return u
	}
	if err := json.Unmarshal(payload, &u.Value); err != nil {
		if u.DecodeErr == nil {
			u.DecodeErr = err
		}
		return u
	}
	u.Fields, _ = u.Value.(map[string]interface{})
	return u
}
