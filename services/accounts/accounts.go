// Package accounts wraps the accounts API of status-backend.
package accounts

import (
	"context"

	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/services"
)

const namespace = "accounts"

// Account is the subset of a wallet account the tests look at.
type Account struct {
	Address   string `json:"address"`
	KeyUID    string `json:"key-uid"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	PublicKey string `json:"public-key"`
	Wallet    bool   `json:"wallet"`
	Chat      bool   `json:"chat"`
}

type Service struct {
	services.Service
}

func New(client services.Caller) *Service {
	return &Service{Service: services.New(client, namespace)}
}

func (s *Service) GetAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := s.CallResult(ctx, &accounts, "getAccounts")
	return accounts, err
}

func (s *Service) GetKeypairs(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "getKeypairs")
}

func (s *Service) HasPairedDevices(ctx context.Context) (bool, error) {
	var paired bool
	err := s.CallResult(ctx, &paired, "hasPairedDevices")
	return paired, err
}
