package api

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	healthInitialInterval = 100 * time.Millisecond
	healthMaxInterval     = 2 * time.Second
	healthMultiplier      = 1.5
)

// ErrNotHealthy is returned when a backend does not become healthy in time.
var ErrNotHealthy = errors.New("status-backend is not healthy")

// HealthBackoff returns the delay after the given failed health probe,
// counting from 0. It grows geometrically and is capped.
func HealthBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(healthInitialInterval) * math.Pow(healthMultiplier, float64(attempt))
	if delay > float64(healthMaxInterval) {
		return healthMaxInterval
	}
	return time.Duration(delay)
}

// attemptBackOff feeds HealthBackoff into backoff.Retry.
type attemptBackOff struct {
	attempt int
}

func (b *attemptBackOff) NextBackOff() time.Duration {
	d := HealthBackoff(b.attempt)
	b.attempt++
	return d
}

func (b *attemptBackOff) Reset() {
	b.attempt = 0
}

// WaitForHealthy calls probe until it succeeds or timeout elapses.
func WaitForHealthy(ctx context.Context, probe func(context.Context) error, timeout time.Duration, logger *zap.Logger) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := probe(ctx)
		if err != nil {
			logger.Debug("status-backend is not healthy yet", zap.Int("attempt", attempts), zap.Error(err))
		}
		return err
	}, backoff.WithContext(&attemptBackOff{}, ctx))
	if err != nil {
		return errors.Wrapf(ErrNotHealthy, "after %s and %d attempts: %v", timeout, attempts, err)
	}

	logger.Info("status-backend is healthy", zap.Duration("after", time.Since(start)), zap.Int("attempts", attempts))
	return nil
}
