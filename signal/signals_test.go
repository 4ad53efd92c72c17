package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSingleEnvelope(t *testing.T) {
	envelopes, err := Decode([]byte(`{"type":"wallet","event":{"type":"wallet-activity-filtering-done","requestId":7,"message":"{}"}}`))
	require.NoError(t, err)
	require.Len(t, envelopes, 1)

	env := envelopes[0]
	require.Equal(t, Wallet, env.Type)
	event, ok := env.Event.(*WalletEvent)
	require.True(t, ok)
	require.Equal(t, EventActivityFilteringDone, event.Type)
	require.Equal(t, int64(7), event.RequestID)
	require.JSONEq(t, `{"type":"wallet-activity-filtering-done","requestId":7,"message":"{}"}`, string(env.Raw))
}

func TestDecodeConcatenatedEnvelopes(t *testing.T) {
	frame := []byte("{\"type\":\"node.ready\",\"event\":null}\n{\"type\":\"message.delivered\",\"event\":{\"chatID\":\"c\",\"messageID\":\"m\"}}")
	envelopes, err := Decode(frame)
	require.NoError(t, err)
	require.Len(t, envelopes, 2)
	require.Equal(t, NodeReady, envelopes[0].Type)
	require.Equal(t, MessageDelivered, envelopes[1].Type)

	delivered := envelopes[1].Event.(*MessageDeliveredEvent)
	require.Equal(t, "c", delivered.ChatID)
	require.Equal(t, "m", delivered.MessageID)
}

func TestDecodeMalformed(t *testing.T) {
	envelopes, err := Decode([]byte(`{"type":"node.ready","event":{}}{"type":`))
	require.Error(t, err)
	require.Len(t, envelopes, 1)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)

	_, err = Decode([]byte(`{"event":{}}`))
	require.ErrorIs(t, err, errEmptyType)
}

func TestDecodeUnknownType(t *testing.T) {
	envelopes, err := Decode([]byte(`{"type":"local-notifications","event":{"id":"1","nested":{"a":true}}}`))
	require.NoError(t, err)
	require.Len(t, envelopes, 1)

	event, ok := envelopes[0].Event.(*UnknownEvent)
	require.True(t, ok)
	require.NoError(t, event.DecodeErr)
	id, ok := event.Get("id")
	require.True(t, ok)
	require.Equal(t, "1", id)

	envelopes, err = Decode([]byte(`{"type":"history.request.started","event":42}`))
	require.NoError(t, err)
	event = envelopes[0].Event.(*UnknownEvent)
	require.Equal(t, float64(42), event.Value)
	require.Nil(t, event.Fields)
}

func TestDecodeKnownTypeWithUnexpectedShape(t *testing.T) {
	envelopes, err := Decode([]byte(`{"type":"wallet","event":{"requestId":"seven"}}`))
	require.NoError(t, err)

	event, ok := envelopes[0].Event.(*UnknownEvent)
	require.True(t, ok)
	require.Error(t, event.DecodeErr)
	require.Equal(t, "seven", event.Fields["requestId"])
}

func TestNodeLoginEvent(t *testing.T) {
	envelopes, err := Decode([]byte(`{"type":"node.login","event":{"settings":{"public-key":"0x04ab"},"account":{"key-uid":"0x12"}}}`))
	require.NoError(t, err)

	login := envelopes[0].Event.(*NodeLoginEvent)
	require.Empty(t, login.Error)
	require.Equal(t, "0x04ab", login.PublicKey())
	require.Equal(t, "0x12", login.KeyUID())
}

func TestEnvelopeString(t *testing.T) {
	envelopes, err := Decode([]byte(`{"type":"node.stopped","event":{}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"node.stopped","event":{}}`, envelopes[0].String())
}
