package signal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/status-im/status-backend-tests/logutils"
)

// State of the signal stream connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateClosed is terminal: the connection was closed or broke.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	closeGracePeriod = time.Second
	maxLoggedFrame   = 512
)

// Option configures a Client.
type Option func(*Client)

// WithDialer overrides the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSignalTypes restricts buffering to the given signal types. Envelopes of
// other types are ignored and waiting for them fails with ErrSignalNotAwaited.
func WithSignalTypes(types ...SignalType) Option {
	return func(c *Client) {
		awaited := mapset.NewSet()
		for _, typ := range types {
			awaited.Add(typ)
		}
		c.awaited = awaited
	}
}

// WithSignalLog writes every received envelope to a rotated log file.
func WithSignalLog(opts logutils.FileOptions) Option {
	return func(c *Client) {
		c.signalLog = logutils.NewFileLogger(opts)
	}
}

// Client is the signal stream listener and wait coordinator of one
// status-backend connection.
type Client struct {
	url       string
	dialer    *websocket.Dialer
	logger    *zap.Logger
	awaited   mapset.Set
	signalLog *zap.Logger

	mu           sync.Mutex
	state        State
	conn         *websocket.Conn
	closeErr     *StreamClosedError
	buffers      map[SignalType]*buffer
	expectations map[SignalType][]*Expectation
	// prepared holds expectations registered with PrepareExpectation that no
	// one waited on yet; Wait adopts them in registration order. A satisfied
	// entry leaves once its envelopes were delivered to other waits.
	prepared map[SignalType][]*Expectation
	done     chan struct{}
}

// NewClient returns a client for the websocket signal endpoint at rawURL. The
// connection is opened by Connect.
func NewClient(rawURL string, opts ...Option) *Client {
	c := &Client{
		url:          rawURL,
		dialer:       websocket.DefaultDialer,
		logger:       logutils.ZapLogger().Named("SignalClient"),
		buffers:      make(map[SignalType]*buffer),
		expectations: make(map[SignalType][]*Expectation),
		prepared:     make(map[SignalType][]*Expectation),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("url", rawURL))
	return c
}

// StreamURL converts a status-backend base URL (http or https) into the URL
// of its signal websocket.
func StreamURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/signals"
	return u.String(), nil
}

// URL returns the websocket URL of the signal stream.
func (c *Client) URL() string {
	return c.url
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the signal stream and starts the reader goroutine. A failed
// dial leaves the client disconnected so Connect can be retried.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyConnected, state)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.state == StateConnecting {
			c.state = StateDisconnected
		}
		return fmt.Errorf("connect to signal stream %s: %w", c.url, err)
	}
	if c.state == StateClosed {
		// Close was called while dialing
		_ = conn.Close()
		return c.closeErr
	}
	c.conn = conn
	c.state = StateConnected
	go c.readLoop(conn)

	c.logger.Info("connection opened")
	return nil
}

// Close closes the stream. Every pending wait fails with ErrStreamClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closeLocked(errClosedByClient)
	c.mu.Unlock()

	if c.signalLog != nil {
		_ = c.signalLog.Sync()
	}
	if conn == nil {
		return nil
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGracePeriod))
	err := conn.Close()
	<-c.done
	return err
}

// Closed is closed once the reader goroutine exits.
func (c *Client) Closed() <-chan struct{} {
	return c.done
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer logutils.LogOnPanic()
	defer close(c.done)
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.closeLocked(err)
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.handleFrame(frame)
	}
}

func (c *Client) closeLocked(cause error) {
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.closeErr = &StreamClosedError{Cause: cause}

	failed := 0
	for typ, pending := range c.expectations {
		for _, e := range pending {
			e.finishLocked(expectationFailed, c.closeErr)
			failed++
		}
		delete(c.expectations, typ)
	}

	if cause == errClosedByClient {
		c.logger.Info("connection closed", zap.Int("failedWaits", failed))
	} else {
		c.logger.Error("connection lost", zap.Error(cause), zap.Int("failedWaits", failed))
	}
}

func (c *Client) handleFrame(frame []byte) {
	envelopes, err := Decode(frame)
	if err != nil {
		signalDecodeErrors.Inc()
		logged := frame
		if len(logged) > maxLoggedFrame {
			logged = logged[:maxLoggedFrame]
		}
		c.logger.Warn("dropping malformed signal", zap.Error(err), zap.ByteString("frame", logged))
	}
	for _, env := range envelopes {
		c.publish(env)
	}
}

// publish appends env to its buffer and offers it to every pending
// expectation of its type, in registration order.
func (c *Client) publish(env *Envelope) {
	if c.awaited != nil && !c.awaited.Contains(env.Type) {
		c.logger.Debug("ignoring signal", zap.Stringer("type", env.Type))
		return
	}
	env.ReceivedAt = time.Now()

	c.mu.Lock()
	b := c.bufferLocked(env.Type)
	b.append(env)

	pending := c.expectations[env.Type]
	kept := pending[:0]
	for _, e := range pending {
		if e.offer(env, c.logger) {
			e.finishLocked(expectationSatisfied, nil)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(pending); i++ {
		pending[i] = nil
	}
	if len(kept) == 0 {
		delete(c.expectations, env.Type)
	} else {
		c.expectations[env.Type] = kept
	}
	c.mu.Unlock()

	signalsReceived.WithLabelValues(string(env.Type)).Inc()
	c.logger.Debug("signal received", zap.Stringer("type", env.Type), zap.Int("seq", env.Seq))
	if c.signalLog != nil {
		c.signalLog.Info("signal",
			zap.Stringer("type", env.Type),
			zap.Int("seq", env.Seq),
			zap.String("event", string(env.Raw)))
	}
}

func (c *Client) bufferLocked(typ SignalType) *buffer {
	b, ok := c.buffers[typ]
	if !ok {
		b = newBuffer()
		c.buffers[typ] = b
	}
	return b
}

func (c *Client) checkAwaited(typ SignalType) error {
	if c.awaited != nil && !c.awaited.Contains(typ) {
		return fmt.Errorf("%w: %s", ErrSignalNotAwaited, typ)
	}
	return nil
}

func (c *Client) registerLocked(typ SignalType, match Predicate, count int) *Expectation {
	e := &Expectation{
		client:  c,
		typ:     typ,
		match:   match,
		count:   count,
		consume: true,
		done:    make(chan struct{}),
	}
	c.expectations[typ] = append(c.expectations[typ], e)
	return e
}

// deliverLocked consumes the envelopes handed to a waiter. Satisfied
// prepared expectations whose envelopes are now all consumed are no longer
// adoptable.
func (c *Client) deliverLocked(typ SignalType, envelopes []*Envelope) {
	b := c.bufferLocked(typ)
	for _, env := range envelopes {
		b.consume(env)
	}

	var released []*Expectation
	for _, e := range c.prepared[typ] {
		if e.state != expectationSatisfied {
			continue
		}
		delivered := true
		for _, env := range e.matched {
			if !b.isConsumed(env) {
				delivered = false
				break
			}
		}
		if delivered {
			released = append(released, e)
		}
	}
	for _, e := range released {
		c.unprepareLocked(e)
	}
}

func (c *Client) removeLocked(e *Expectation) {
	c.expectations[e.typ] = without(c.expectations[e.typ], e)
	if len(c.expectations[e.typ]) == 0 {
		delete(c.expectations, e.typ)
	}
}

func (c *Client) unprepareLocked(e *Expectation) {
	prepared, ok := c.prepared[e.typ]
	if !ok {
		return
	}
	c.prepared[e.typ] = without(prepared, e)
	if len(c.prepared[e.typ]) == 0 {
		delete(c.prepared, e.typ)
	}
}

func without(list []*Expectation, e *Expectation) []*Expectation {
	for i, item := range list {
		if item == e {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}
