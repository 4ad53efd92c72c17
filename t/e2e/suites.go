//go:build functional

// Package e2e holds functional scenarios run against real status-backend
// instances listed in STATUS_BACKEND_URLS and a local anvil chain.
//
//	go test -tags functional ./t/e2e/...
package e2e

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/status-im/status-backend-tests/api"
	"github.com/status-im/status-backend-tests/params"
	"github.com/status-im/status-backend-tests/signal"
)

const scenarioTimeout = 2 * time.Minute

// StatusBackendTestSuite provides logged in backends. Suites embed it and
// set AwaitSignals before SetupTest runs.
type StatusBackendTestSuite struct {
	suite.Suite

	AwaitSignals []signal.SignalType
	Config       *params.Config

	ctx      context.Context
	cancel   context.CancelFunc
	backends []*api.StatusBackend
}

func (s *StatusBackendTestSuite) SetupTest() {
	config, err := params.Load(".env", "../../.env")
	s.Require().NoError(err)
	if len(config.StatusBackendURLs) == 0 {
		s.T().Skipf("%s is not set", params.EnvStatusBackendURLs)
	}
	s.Config = config
	s.ctx, s.cancel = context.WithTimeout(context.Background(), scenarioTimeout)
}

func (s *StatusBackendTestSuite) TearDownTest() {
	if s.cancel == nil {
		return
	}
	s.Require().NoError(api.CloseAll(context.Background(), s.backends...))
	s.backends = nil
	s.cancel()
}

func (s *StatusBackendTestSuite) Context() context.Context {
	return s.ctx
}

// NewBackend initializes a backend and restores user on it.
func (s *StatusBackendTestSuite) NewBackend(user params.Account, opts ...api.AccountOption) *api.StatusBackend {
	backend, err := api.New(s.ctx, s.Config, api.WithAwaitedSignals(s.AwaitSignals...))
	s.Require().NoError(err)
	s.backends = append(s.backends, backend)

	_, err = backend.InitializeApplication(s.ctx)
	s.Require().NoError(err)
	_, err = backend.RestoreAccountAndLogin(s.ctx, user, opts...)
	s.Require().NoError(err)
	_, err = backend.WaitForLogin(s.ctx)
	s.Require().NoError(err)
	return backend
}

// NewMessengerBackend is NewBackend with a started messenger that has peers.
func (s *StatusBackendTestSuite) NewMessengerBackend(user params.Account, opts ...api.AccountOption) *api.StatusBackend {
	backend := s.NewBackend(user, opts...)
	_, err := backend.Wakuext.StartMessenger(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(backend.WaitForOnline(s.ctx, time.Minute))
	return backend
}
