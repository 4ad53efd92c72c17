package api

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-backend-tests/logutils"
	"github.com/status-im/status-backend-tests/rpc"
)

// ErrNoBackendURL is returned when every provisioned backend URL is in use.
var ErrNoBackendURL = errors.New("not enough status-backend urls provided")

// Lifecycle provides a running status-backend. Start returns its base URL.
type Lifecycle interface {
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) error
	Health(ctx context.Context, timeout time.Duration) bool
}

// URLPool hands out pre-provisioned backend URLs, each at most once.
type URLPool struct {
	mu   sync.Mutex
	urls []string
	next int
}

func NewURLPool(urls []string) *URLPool {
	return &URLPool{urls: append([]string(nil), urls...)}
}

func (p *URLPool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.urls) {
		return "", ErrNoBackendURL
	}
	url := p.urls[p.next]
	p.next++
	return url, nil
}

// Remaining returns the number of URLs not handed out yet.
func (p *URLPool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.urls) - p.next
}

var (
	sharedPool     *URLPool
	sharedPoolOnce sync.Once
)

// SharedURLPool returns the process wide pool. It is built from urls on the
// first call; later calls ignore their argument.
func SharedURLPool(urls []string) *URLPool {
	sharedPoolOnce.Do(func() {
		sharedPool = NewURLPool(urls)
	})
	return sharedPool
}

// ExternalLifecycle uses a backend started outside of the test process.
// Stop does not stop it.
type ExternalLifecycle struct {
	pool   *URLPool
	logger *zap.Logger

	mu  sync.Mutex
	url string
}

func NewExternalLifecycle(pool *URLPool) *ExternalLifecycle {
	return &ExternalLifecycle{
		pool:   pool,
		logger: logutils.ZapLogger().Named("ExternalLifecycle"),
	}
}

// Start takes the next URL of the pool. Calling it again returns the same URL.
func (l *ExternalLifecycle) Start(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.url != "" {
		return l.url, nil
	}
	url, err := l.pool.Next()
	if err != nil {
		return "", err
	}
	l.url = url
	l.logger.Info("using external status-backend", zap.String("url", url))
	return url, nil
}

func (l *ExternalLifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Debug("leaving external status-backend running", zap.String("url", l.url))
	return nil
}

func (l *ExternalLifecycle) Health(ctx context.Context, timeout time.Duration) bool {
	l.mu.Lock()
	url := l.url
	l.mu.Unlock()
	if url == "" {
		return false
	}

	client := rpc.NewClient(url, rpc.WithTimeout(timeout), rpc.WithLogger(l.logger))
	probe := func(ctx context.Context) error {
		_, err := client.Health(ctx)
		return err
	}
	if err := WaitForHealthy(ctx, probe, timeout, l.logger); err != nil {
		l.logger.Error("status-backend is not healthy", zap.String("url", url), zap.Error(err))
		return false
	}
	return true
}
