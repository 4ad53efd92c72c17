//go:build functional

package e2e

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/status-im/status-backend-tests/api"
	"github.com/status-im/status-backend-tests/params"
	"github.com/status-im/status-backend-tests/signal"
)

func TestAccountsTestSuite(t *testing.T) {
	suite.Run(t, new(AccountsTestSuite))
}

type AccountsTestSuite struct {
	StatusBackendTestSuite
}

func (s *AccountsTestSuite) SetupTest() {
	s.AwaitSignals = []signal.SignalType{signal.NodeLogin}
	s.StatusBackendTestSuite.SetupTest()
}

func (s *AccountsTestSuite) TestLogin() {
	backend := s.NewBackend(params.User1)
	s.Require().NotEmpty(backend.PublicKey())
	s.Require().NotEmpty(backend.KeyUID())

	accounts, err := backend.Accounts.GetAccounts(s.Context())
	s.Require().NoError(err)
	s.Require().NotEmpty(accounts)

	var wallet bool
	for _, a := range accounts {
		if a.Wallet {
			wallet = true
			s.Require().Equal(backend.KeyUID(), a.KeyUID)
		}
	}
	s.Require().True(wallet, "no wallet account")
}

func (s *AccountsTestSuite) TestLogoutAndLogin() {
	backend := s.NewBackend(params.User1)
	keyUID := backend.KeyUID()

	_, err := backend.Logout(s.Context())
	s.Require().NoError(err)
	s.Require().NoError(backend.WaitForLogout(s.Context()))

	_, err = backend.LoginAccount(s.Context(), keyUID, params.User1)
	s.Require().NoError(err)
	_, err = backend.WaitForLogin(s.Context())
	s.Require().NoError(err)
	s.Require().Equal(keyUID, backend.KeyUID())
}

func (s *AccountsTestSuite) TestSettings() {
	backend := s.NewBackend(params.User1, api.WithDisplayName(params.DefaultDisplayName))

	_, err := backend.Settings.SaveSetting(s.Context(), "currency", "eur")
	s.Require().NoError(err)

	settings, err := backend.Settings.GetSettings(s.Context())
	s.Require().NoError(err)
	s.Require().Equal("eur", settings["currency"])
	s.Require().Equal(params.DefaultDisplayName, settings["display-name"])
}

func (s *AccountsTestSuite) TestLogging() {
	backend := s.NewBackend(params.User1)

	_, err := backend.SetLogLevel(s.Context(), "DEBUG")
	s.Require().NoError(err)
	_, err = backend.SetLogNamespaces(s.Context(), "test1.test2:debug,test1.test2.test3:info")
	s.Require().NoError(err)
	_, err = backend.Wakuext.LogTest(s.Context())
	s.Require().NoError(err)
}
