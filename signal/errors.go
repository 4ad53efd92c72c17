package signal

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeoutExceeded is matched by errors returned when a wait runs out of time.
	ErrTimeoutExceeded = errors.New("signal wait timeout exceeded")
	// ErrStreamClosed is matched by errors returned when the signal stream died
	// while a wait was pending, or before it started.
	ErrStreamClosed = errors.New("signal stream closed")
	// ErrExpectationCancelled is returned by waits on a cancelled expectation.
	ErrExpectationCancelled = errors.New("signal expectation cancelled")
	ErrInvalidCount         = errors.New("expected signal count must be greater than 0")
	ErrSignalNotAwaited     = errors.New("signal type is not in the list of awaited signals")
	ErrAlreadyConnected     = errors.New("signal client already connected")

	errClosedByClient = errors.New("closed by client")
)

// TimeoutError is returned when an expected signal did not arrive in time.
type TimeoutError struct {
	Type SignalType
	// Pattern is set for FindMatching waits.
	Pattern string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	elapsed := e.Elapsed.Round(time.Millisecond)
	if e.Pattern != "" {
		return fmt.Sprintf("signal %s containing %q is not received in %s", e.Type, e.Pattern, elapsed)
	}
	return fmt.Sprintf("signal %s is not received in %s", e.Type, elapsed)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeoutExceeded
}

// StreamClosedError carries the reason the signal stream terminated. The same
// instance is delivered to every wait pending at that moment.
type StreamClosedError struct {
	Cause error
}

func (e *StreamClosedError) Error() string {
	if e.Cause == nil {
		return ErrStreamClosed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrStreamClosed, e.Cause)
}

func (e *StreamClosedError) Is(target error) bool {
	return target == ErrStreamClosed
}

func (e *StreamClosedError) Unwrap() error {
	return e.Cause
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeoutExceeded)
}

func isStreamClosed(err error) bool {
	return errors.Is(err, ErrStreamClosed)
}
