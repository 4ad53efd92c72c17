package signal

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Predicate selects envelopes. It runs on the reader goroutine while the
// client lock is held, so it must be fast and must not call back into the
// Client.
type Predicate func(*Envelope) bool

type expectationState int

const (
	expectationPending expectationState = iota
	expectationSatisfied
	expectationFailed
	expectationCancelled
)

// Expectation is a registered interest in count envelopes of one type
// matching a predicate. It is satisfied by envelopes arriving after it was
// registered.
type Expectation struct {
	client  *Client
	typ     SignalType
	match   Predicate
	count   int
	pattern string
	// consume marks the envelopes that satisfied it as delivered once it is
	// waited on.
	consume bool

	// guarded by client.mu
	state   expectationState
	matched []*Envelope
	err     error
	done    chan struct{}
}

// Type returns the signal type the expectation waits for.
func (e *Expectation) Type() SignalType {
	return e.typ
}

// Done is closed once the expectation is satisfied, failed or cancelled.
func (e *Expectation) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the expectation is satisfied, the stream closes or ctx is
// done. On success it returns the count matching envelopes in arrival order.
// A wait that ends because of ctx deregisters the expectation.
func (e *Expectation) Wait(ctx context.Context) ([]*Envelope, error) {
	start := time.Now()
	c := e.client

	c.mu.Lock()
	c.unprepareLocked(e)
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.deliver()
	case <-ctx.Done():
	}

	c.mu.Lock()
	if e.state != expectationPending {
		c.mu.Unlock()
		return e.deliver()
	}
	c.removeLocked(e)
	e.finishLocked(expectationCancelled, waitError(ctx, e, time.Since(start)))
	c.mu.Unlock()

	recordWait(e.typ, e.err)
	return nil, e.err
}

// Cancel deregisters a pending expectation. Waiters receive
// ErrExpectationCancelled. Cancelling a finished expectation is a no-op.
func (e *Expectation) Cancel() {
	c := e.client
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unprepareLocked(e)
	if e.state != expectationPending {
		return
	}
	c.removeLocked(e)
	e.finishLocked(expectationCancelled, ErrExpectationCancelled)
}

// deliver returns the outcome of a finished expectation and consumes its
// envelopes.
func (e *Expectation) deliver() ([]*Envelope, error) {
	c := e.client
	c.mu.Lock()
	envelopes, err := e.result()
	if err == nil && e.consume {
		c.deliverLocked(e.typ, envelopes)
	}
	c.mu.Unlock()

	recordWait(e.typ, err)
	return envelopes, err
}

func (e *Expectation) result() ([]*Envelope, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([]*Envelope, len(e.matched))
	copy(out, e.matched)
	return out, nil
}

// offer evaluates env and reports whether the expectation is now satisfied.
func (e *Expectation) offer(env *Envelope, logger *zap.Logger) bool {
	if !accepts(e.match, env, logger) {
		return false
	}
	e.matched = append(e.matched, env)
	return len(e.matched) >= e.count
}

func (e *Expectation) finishLocked(state expectationState, err error) {
	e.state = state
	e.err = err
	close(e.done)
}

func accepts(match Predicate, env *Envelope, logger *zap.Logger) (ok bool) {
	if match == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("signal predicate panicked",
				zap.Stringer("type", env.Type),
				zap.Any("panic", r))
			ok = false
		}
	}()
	return match(env)
}

func waitError(ctx context.Context, e *Expectation, elapsed time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Type: e.typ, Pattern: e.pattern, Elapsed: elapsed}
	}
	return ctx.Err()
}
