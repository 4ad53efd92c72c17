// Package wallet wraps the wallet API of status-backend.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/services"
)

const namespace = "wallet"

// RouteParams is the input of wallet_getSuggestedRoutesAsync.
type RouteParams struct {
	UUID                 string         `json:"uuid"`
	SendType             int            `json:"sendType"`
	AddrFrom             common.Address `json:"addrFrom"`
	AddrTo               common.Address `json:"addrTo"`
	AmountIn             *hexutil.Big   `json:"amountIn"`
	AmountOut            *hexutil.Big   `json:"amountOut"`
	TokenID              string         `json:"tokenID"`
	TokenIDIsOwnerToken  bool           `json:"tokenIDIsOwnerToken"`
	ToTokenID            string         `json:"toTokenID"`
	DisabledFromChainIDs []uint64       `json:"disabledFromChainIDs"`
	DisabledToChainIDs   []uint64       `json:"disabledToChainIDs"`
	GasFeeMode           int            `json:"gasFeeMode"`
}

// Signature is a transaction hash signature split the way the router
// expects it.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V string `json:"v"`
}

// SplitSignature splits a 65 byte hex encoded signature into r, s and v.
func SplitSignature(signature string) (Signature, error) {
	raw, err := hexutil.Decode(signature)
	if err != nil {
		return Signature{}, err
	}
	if len(raw) != 65 {
		return Signature{}, fmt.Errorf("invalid signature length %d", len(raw))
	}
	return Signature{
		R: common.Bytes2Hex(raw[:32]),
		S: common.Bytes2Hex(raw[32:64]),
		V: common.Bytes2Hex(raw[64:]),
	}, nil
}

// ActivityFilter selects the entries of an activity session.
type ActivityFilter struct {
	Period                ActivityPeriod    `json:"period"`
	Types                 []int             `json:"types"`
	Statuses              []int             `json:"statuses"`
	CounterpartyAddresses []common.Address  `json:"counterpartyAddresses"`
	Assets                []json.RawMessage `json:"assets"`
	Collectibles          []json.RawMessage `json:"collectibles"`
	FilterOutAssets       bool              `json:"filterOutAssets"`
	FilterOutCollectibles bool              `json:"filterOutCollectibles"`
}

type ActivityPeriod struct {
	StartTimestamp int64 `json:"startTimestamp"`
	EndTimestamp   int64 `json:"endTimestamp"`
}

// NewActivityFilter returns a filter matching everything.
func NewActivityFilter() ActivityFilter {
	return ActivityFilter{
		Types:                 []int{},
		Statuses:              []int{},
		CounterpartyAddresses: []common.Address{},
		Assets:                []json.RawMessage{},
		Collectibles:          []json.RawMessage{},
	}
}

type Service struct {
	services.Service
}

func New(client services.Caller) *Service {
	return &Service{Service: services.New(client, namespace)}
}

func (s *Service) StartWallet(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "startWallet")
}

func (s *Service) GetEthereumChains(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "getEthereumChains")
}

func (s *Service) GetTokenList(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "getTokenList")
}

// GetSuggestedRoutesAsync starts route calculation. The result arrives as a
// wallet.suggested.routes signal.
func (s *Service) GetSuggestedRoutesAsync(ctx context.Context, params RouteParams) (*rpc.Response, error) {
	return s.Call(ctx, "getSuggestedRoutesAsync", params)
}

func (s *Service) StopSuggestedRoutesAsyncCalculation(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "stopSuggestedRoutesAsyncCalculation")
}

// BuildTransactionsFromRoute builds the transactions of the best route. The
// hashes to sign arrive as a wallet.router.sign-transactions signal.
func (s *Service) BuildTransactionsFromRoute(ctx context.Context, uuid string, slippagePercentage float64) (*rpc.Response, error) {
	return s.Call(ctx, "buildTransactionsFromRoute", map[string]interface{}{
		"uuid":               uuid,
		"slippagePercentage": slippagePercentage,
	})
}

// SignMessage signs a hash with the key of address and returns the hex
// encoded signature.
func (s *Service) SignMessage(ctx context.Context, hash string, address string, password string) (string, error) {
	var signature string
	err := s.CallResult(ctx, &signature, "signMessage", hash, address, password)
	return signature, err
}

func (s *Service) SendRouterTransactionsWithSignatures(ctx context.Context, uuid string, signatures map[string]Signature) (*rpc.Response, error) {
	return s.Call(ctx, "sendRouterTransactionsWithSignatures", map[string]interface{}{
		"uuid":       uuid,
		"signatures": signatures,
	})
}

// StartActivityFilterSessionV2 returns the id of the new session. Results
// arrive as wallet signals carrying the session id as requestId.
func (s *Service) StartActivityFilterSessionV2(ctx context.Context, requestID interface{}, addresses []common.Address, chainIDs []uint64, filter ActivityFilter, count int) (int64, error) {
	resp, err := s.CallWithID(ctx, requestID, "startActivityFilterSessionV2", addresses, chainIDs, filter, count)
	if err != nil {
		return 0, err
	}
	var sessionID int64
	return sessionID, resp.UnmarshalResult(&sessionID)
}

func (s *Service) ResetActivityFilterSession(ctx context.Context, requestID interface{}, sessionID int64, count int) (*rpc.Response, error) {
	return s.CallWithID(ctx, requestID, "resetActivityFilterSession", sessionID, count)
}

func (s *Service) StopActivityFilterSession(ctx context.Context, sessionID int64) (*rpc.Response, error) {
	return s.Call(ctx, "stopActivityFilterSession", sessionID)
}

// GetOwnedCollectiblesAsync starts collectibles filtering. The result arrives
// as a wallet signal of type wallet-owned-collectibles-filtering-done.
func (s *Service) GetOwnedCollectiblesAsync(ctx context.Context, requestID int, chainIDs []uint64, addresses []common.Address, offset, limit int) (*rpc.Response, error) {
	fetchCriteria := map[string]int{"fetch-type": 2, "max-cache-age-seconds": 3600}
	return s.Call(ctx, "getOwnedCollectiblesAsync", requestID, chainIDs, addresses, nil, offset, limit, 1, fetchCriteria)
}

func (s *Service) FetchPrices(ctx context.Context, symbols []string, currencies []string) (*rpc.Response, error) {
	return s.Call(ctx, "fetchPrices", symbols, currencies)
}

func (s *Service) GetCachedCurrencyFormats(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "getCachedCurrencyFormats")
}
