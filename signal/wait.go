package signal

import (
	"bytes"
	"context"
	"regexp"
	"time"
)

// PrepareExpectation registers interest in count envelopes of typ accepted by
// match before the call that triggers them is made. Only envelopes received
// after registration count. A nil match accepts every envelope.
//
// The matching envelopes stay available to Wait until the expectation is
// waited on. Callers wait on or cancel every prepared expectation; one left
// satisfied is adopted by the next Wait of typ without a predicate unless its
// envelopes were delivered to other waits first.
func (c *Client) PrepareExpectation(typ SignalType, match Predicate, count int) (*Expectation, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if err := c.checkAwaited(typ); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeErr != nil {
		return nil, c.closeErr
	}
	e := c.registerLocked(typ, match, count)
	c.prepared[typ] = append(c.prepared[typ], e)
	return e, nil
}

// Wait returns the next envelope of typ accepted by match. When match is nil
// and an expectation of typ was prepared and not waited on yet, the oldest one
// is adopted and the envelope that completed it is returned. Otherwise
// buffered envelopes that no wait has consumed are checked first, in arrival
// order, so an envelope taken by a satisfied prepared expectation is still
// found.
func (c *Client) Wait(ctx context.Context, typ SignalType, match Predicate) (*Envelope, error) {
	envelopes, err := c.WaitAll(ctx, typ, match, 1)
	if err != nil {
		return nil, err
	}
	return envelopes[len(envelopes)-1], nil
}

// WaitAll is Wait for count envelopes. The count of an adopted prepared
// expectation takes precedence.
func (c *Client) WaitAll(ctx context.Context, typ SignalType, match Predicate, count int) ([]*Envelope, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if err := c.checkAwaited(typ); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if match == nil {
		if e := c.adoptLocked(typ); e != nil {
			c.mu.Unlock()
			return e.Wait(ctx)
		}
	}

	var matched []*Envelope
	b := c.bufferLocked(typ)
	for _, env := range b.unconsumed() {
		if accepts(match, env, c.logger) {
			matched = append(matched, env)
			if len(matched) == count {
				break
			}
		}
	}
	if len(matched) == count {
		c.deliverLocked(typ, matched)
		c.mu.Unlock()
		recordWait(typ, nil)
		return matched, nil
	}
	if c.closeErr != nil {
		err := c.closeErr
		c.mu.Unlock()
		recordWait(typ, err)
		return nil, err
	}
	e := c.registerLocked(typ, match, count)
	e.matched = matched
	c.mu.Unlock()

	return e.Wait(ctx)
}

// WaitForSignal waits up to timeout for the next envelope of typ.
func (c *Client) WaitForSignal(typ SignalType, timeout time.Duration) (*Envelope, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Wait(ctx, typ, nil)
}

// FindMatching returns the first envelope of typ whose raw event payload
// contains pattern. Every buffered envelope is searched, including the ones
// already delivered to other waits, before waiting for new ones. Nothing is
// consumed.
func (c *Client) FindMatching(ctx context.Context, typ SignalType, pattern string) (*Envelope, error) {
	return c.find(ctx, typ, pattern, Contains(pattern))
}

// FindMatchingRegexp is FindMatching with a regular expression.
func (c *Client) FindMatchingRegexp(ctx context.Context, typ SignalType, re *regexp.Regexp) (*Envelope, error) {
	return c.find(ctx, typ, re.String(), MatchesRegexp(re))
}

// Contains matches envelopes whose raw event payload contains pattern.
func Contains(pattern string) Predicate {
	needle := []byte(pattern)
	return func(env *Envelope) bool {
		return bytes.Contains(env.Raw, needle)
	}
}

// MatchesRegexp matches envelopes whose raw event payload matches re.
func MatchesRegexp(re *regexp.Regexp) Predicate {
	return func(env *Envelope) bool {
		return re.Match(env.Raw)
	}
}

func (c *Client) find(ctx context.Context, typ SignalType, pattern string, match Predicate) (*Envelope, error) {
	if err := c.checkAwaited(typ); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if b, ok := c.buffers[typ]; ok {
		for _, env := range b.envelopes {
			if match(env) {
				c.mu.Unlock()
				recordWait(typ, nil)
				return env, nil
			}
		}
	}
	if c.closeErr != nil {
		err := c.closeErr
		c.mu.Unlock()
		recordWait(typ, err)
		return nil, err
	}
	e := c.registerLocked(typ, match, 1)
	e.pattern = pattern
	e.consume = false
	c.mu.Unlock()

	envelopes, err := e.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return envelopes[0], nil
}

// Received returns a copy of the buffered envelopes of typ, consumed ones
// included, in arrival order.
func (c *Client) Received(typ SignalType) []*Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buffers[typ]
	if !ok {
		return nil
	}
	return b.snapshot()
}

// Pending returns the number of registered expectations of typ that are not
// finished yet.
func (c *Client) Pending(typ SignalType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.expectations[typ])
}

// Trim drops the envelopes of typ that were already delivered to a wait and
// returns how many were dropped.
func (c *Client) Trim(typ SignalType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buffers[typ]
	if !ok {
		return 0
	}
	return b.trim()
}

func (c *Client) adoptLocked(typ SignalType) *Expectation {
	prepared := c.prepared[typ]
	if len(prepared) == 0 {
		return nil
	}
	e := prepared[0]
	c.unprepareLocked(e)
	return e
}
