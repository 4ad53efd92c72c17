// Package api drives a status-backend process the way a client application
// does: it initializes the application, creates and logs into accounts and
// exposes the backend RPC namespaces and its signal stream.
package api

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/status-im/status-backend-tests/logutils"
	"github.com/status-im/status-backend-tests/params"
	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/services/accounts"
	"github.com/status-im/status-backend-tests/services/settings"
	"github.com/status-im/status-backend-tests/services/wakuext"
	"github.com/status-im/status-backend-tests/services/wallet"
	"github.com/status-im/status-backend-tests/signal"
)

const (
	signalLogMaxSize    = 100
	signalLogMaxBackups = 3
	onlinePollInterval  = 500 * time.Millisecond
	rpcRetryWait        = 200 * time.Millisecond
)

var (
	// ErrLoginFailed is returned when node.login reports an error.
	ErrLoginFailed = errors.New("login failed")
	// ErrNotOnline is returned when the backend has no waku peers in time.
	ErrNotOnline = errors.New("status-backend is not online")
)

// Option configures a StatusBackend.
type Option func(*StatusBackend)

// WithLifecycle sets how the backend is provided. By default a URL is taken
// from the shared pool built from STATUS_BACKEND_URLS.
func WithLifecycle(lifecycle Lifecycle) Option {
	return func(b *StatusBackend) {
		b.lifecycle = lifecycle
	}
}

// WithAwaitedSignals restricts the buffered signal types. node.login and
// node.stopped are always added.
func WithAwaitedSignals(types ...signal.SignalType) Option {
	return func(b *StatusBackend) {
		b.awaited = append(b.awaited, types...)
	}
}

// WithName names the backend in logs and in the signal log file name.
func WithName(name string) Option {
	return func(b *StatusBackend) {
		b.name = name
	}
}

// StatusBackend is a started status-backend with a connected signal stream.
type StatusBackend struct {
	config    *params.Config
	name      string
	lifecycle Lifecycle
	awaited   []signal.SignalType
	logger    *zap.Logger

	url     string
	rpc     *rpc.Client
	signals *signal.Client

	Wakuext  *wakuext.Service
	Wallet   *wallet.Service
	Accounts *accounts.Service
	Settings *settings.Service

	mu          sync.Mutex
	displayName string
	publicKey   string
	keyUID      string
}

// New starts a backend through its lifecycle, waits until it is healthy and
// connects to its signal stream.
func New(ctx context.Context, config *params.Config, opts ...Option) (*StatusBackend, error) {
	b := &StatusBackend{
		config: config,
		name:   uuid.NewString()[:8],
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.lifecycle == nil {
		b.lifecycle = NewExternalLifecycle(SharedURLPool(config.StatusBackendURLs))
	}
	b.logger = logutils.ZapLogger().Named("StatusBackend").With(zap.String("name", b.name))

	url, err := b.lifecycle.Start(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "start status-backend")
	}
	b.url = url
	b.logger = b.logger.With(zap.String("url", url))

	if err := b.connect(ctx); err != nil {
		return nil, multierr.Append(err, b.lifecycle.Stop(ctx))
	}

	b.Wakuext = wakuext.New(b.rpc)
	b.Wallet = wallet.New(b.rpc)
	b.Accounts = accounts.New(b.rpc)
	b.Settings = settings.New(b.rpc)
	return b, nil
}

// RPCOptions returns the rpc client options configured by config.
func RPCOptions(config *params.Config, logger *zap.Logger) []rpc.Option {
	opts := []rpc.Option{rpc.WithLogger(logger)}
	if config.RPCRetries > 0 {
		opts = append(opts, rpc.WithRetries(config.RPCRetries, rpcRetryWait))
	}
	return opts
}

func (b *StatusBackend) connect(ctx context.Context) error {
	b.rpc = rpc.NewClient(b.url, RPCOptions(b.config, b.logger.Named("RPC"))...)
	if !b.lifecycle.Health(ctx, b.config.HealthTimeout) {
		return errors.Wrapf(ErrNotHealthy, "after %s", b.config.HealthTimeout)
	}

	streamURL, err := signal.StreamURL(b.url)
	if err != nil {
		return err
	}
	signalOpts := []signal.Option{signal.WithLogger(b.logger.Named("Signals"))}
	if len(b.awaited) > 0 {
		types := append([]signal.SignalType{signal.NodeLogin, signal.NodeStopped}, b.awaited...)
		signalOpts = append(signalOpts, signal.WithSignalTypes(types...))
	}
	if b.config.LogSignalsToFile {
		signalOpts = append(signalOpts, signal.WithSignalLog(logutils.FileOptions{
			Filename:   b.config.SignalLogPath(b.name),
			MaxSize:    signalLogMaxSize,
			MaxBackups: signalLogMaxBackups,
		}))
	}
	b.signals = signal.NewClient(streamURL, signalOpts...)
	return b.signals.Connect(ctx)
}

func (b *StatusBackend) Name() string {
	return b.name
}

func (b *StatusBackend) URL() string {
	return b.url
}

func (b *StatusBackend) RPC() *rpc.Client {
	return b.rpc
}

func (b *StatusBackend) Signals() *signal.Client {
	return b.signals
}

func (b *StatusBackend) Config() *params.Config {
	return b.config
}

// PublicKey returns the chat key recorded by the last successful WaitForLogin.
func (b *StatusBackend) PublicKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publicKey
}

// KeyUID returns the key uid recorded by the last successful WaitForLogin.
func (b *StatusBackend) KeyUID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keyUID
}

// DisplayName returns the display name of the last created account.
func (b *StatusBackend) DisplayName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.displayName
}

func (b *StatusBackend) Health(ctx context.Context) error {
	_, err := b.rpc.Health(ctx)
	return err
}

// InitializeApplication initializes the backend data directory. With
// FUNCTIONAL_TESTS_LOGOUT set a previous session is logged out first.
func (b *StatusBackend) InitializeApplication(ctx context.Context) (*rpc.Response, error) {
	if b.config.Logout {
		b.logger.Warn("automatically logging out before InitializeApplication")
		if _, err := b.Logout(ctx); err != nil {
			b.logger.Debug("failed to log out", zap.Error(err))
		} else {
			b.logger.Debug("successfully logged out")
		}
	}
	return b.rpc.APIValidRequest(ctx, "InitializeApplication", initializeApplicationRequest(b.config))
}

func (b *StatusBackend) CreateAccountAndLogin(ctx context.Context, user params.Account, opts ...AccountOption) (*rpc.Response, error) {
	o := newAccountOptions(b.config, user, opts)
	b.setDisplayName(o.DisplayName)
	return b.rpc.APIValidRequest(ctx, "CreateAccountAndLogin", createAccountRequest(b.config, o))
}

// RestoreAccountAndLogin restores user from its mnemonic.
func (b *StatusBackend) RestoreAccountAndLogin(ctx context.Context, user params.Account, opts ...AccountOption) (*rpc.Response, error) {
	o := newAccountOptions(b.config, user, opts)
	b.setDisplayName(o.DisplayName)
	data := createAccountRequest(b.config, o)
	data["mnemonic"] = user.Passphrase
	return b.rpc.APIValidRequest(ctx, "RestoreAccountAndLogin", data)
}

func (b *StatusBackend) LoginAccount(ctx context.Context, keyUID string, user params.Account) (*rpc.Response, error) {
	return b.rpc.APIValidRequest(ctx, "LoginAccount", loginRequest(b.config, keyUID, user))
}

func (b *StatusBackend) Logout(ctx context.Context) (*rpc.Response, error) {
	return b.rpc.APIValidRequest(ctx, "Logout", map[string]interface{}{})
}

func (b *StatusBackend) SetLogLevel(ctx context.Context, level string) (*rpc.Response, error) {
	return b.rpc.APIValidRequest(ctx, "SetLogLevel", map[string]string{"logLevel": level})
}

func (b *StatusBackend) SetLogEnabled(ctx context.Context, enabled bool) (*rpc.Response, error) {
	return b.rpc.APIValidRequest(ctx, "SetLogEnabled", map[string]bool{"enabled": enabled})
}

// SetLogNamespaces sets per namespace levels, e.g. "test1.test2:debug".
func (b *StatusBackend) SetLogNamespaces(ctx context.Context, namespaces string) (*rpc.Response, error) {
	return b.rpc.APIValidRequest(ctx, "SetLogNamespaces", map[string]string{"logNamespaces": namespaces})
}

// WaitForLogin waits for node.login and records the public key and key uid
// of the account. A login signal carrying an error fails with ErrLoginFailed.
func (b *StatusBackend) WaitForLogin(ctx context.Context) (*signal.NodeLoginEvent, error) {
	ctx, cancel := b.signalContext(ctx)
	defer cancel()

	env, err := b.signals.Wait(ctx, signal.NodeLogin, nil)
	if err != nil {
		return nil, err
	}
	event, ok := env.Event.(*signal.NodeLoginEvent)
	if !ok {
		return nil, errors.Errorf("unexpected node.login payload: %s", env.Raw)
	}
	if event.Error != "" {
		return event, errors.Wrap(ErrLoginFailed, event.Error)
	}

	b.mu.Lock()
	b.publicKey = event.PublicKey()
	b.keyUID = event.KeyUID()
	b.mu.Unlock()

	b.logger.Info("logged in", zap.String("publicKey", event.PublicKey()), zap.String("keyUID", event.KeyUID()))
	return event, nil
}

// WaitForLogout waits for node.stopped.
func (b *StatusBackend) WaitForLogout(ctx context.Context) error {
	ctx, cancel := b.signalContext(ctx)
	defer cancel()

	_, err := b.signals.Wait(ctx, signal.NodeStopped, nil)
	return err
}

// WaitForOnline polls wakuext_peers until the backend has at least one peer.
func (b *StatusBackend) WaitForOnline(ctx context.Context, timeout time.Duration) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := backoff.Retry(func() error {
		peers, err := b.Wakuext.Peers(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(peers) == 0 {
			return ErrNotOnline
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(onlinePollInterval), ctx))
	if err != nil {
		return errors.Wrapf(ErrNotOnline, "after %s: %v", timeout, err)
	}

	b.logger.Info("status-backend is online", zap.Duration("after", time.Since(start)))
	return nil
}

// Close disconnects the signal stream and stops the backend.
func (b *StatusBackend) Close(ctx context.Context) error {
	var err error
	if b.signals != nil {
		err = multierr.Append(err, b.signals.Close())
	}
	return multierr.Append(err, b.lifecycle.Stop(ctx))
}

// CloseAll closes every backend and returns all errors.
func CloseAll(ctx context.Context, backends ...*StatusBackend) error {
	var err error
	for _, b := range backends {
		if b == nil {
			continue
		}
		err = multierr.Append(err, b.Close(ctx))
	}
	return err
}

func (b *StatusBackend) setDisplayName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.displayName = name
}

// signalContext bounds ctx by the configured signal timeout unless it already
// has a deadline.
func (b *StatusBackend) signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.config.SignalTimeout)
}
