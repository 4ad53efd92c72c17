// Package ethclient wraps the chain access status-backend proxies per chain
// id, e.g. ethclient_transactionByHash.
package ethclient

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/services"
)

const namespace = "ethclient"

// Transaction is the result of ethclient_transactionByHash.
type Transaction struct {
	Tx        json.RawMessage `json:"tx"`
	IsPending bool            `json:"isPending"`
}

// Receipt is the subset of a transaction receipt the tests look at.
type Receipt struct {
	Status      hexutil.Uint64 `json:"status"`
	TxHash      common.Hash    `json:"transactionHash"`
	BlockHash   common.Hash    `json:"blockHash"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
}

type Service struct {
	services.Service
	chainID uint64
}

// New returns a service bound to one chain.
func New(client services.Caller, chainID uint64) *Service {
	return &Service{Service: services.New(client, namespace), chainID: chainID}
}

func (s *Service) ChainID() uint64 {
	return s.chainID
}

func (s *Service) TransactionByHash(ctx context.Context, hash common.Hash) (*Transaction, error) {
	var tx Transaction
	if err := s.CallResult(ctx, &tx, "transactionByHash", s.chainID, hash); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Service) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var receipt Receipt
	if err := s.CallResult(ctx, &receipt, "transactionReceipt", s.chainID, hash); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// HeaderByNumber returns the raw header. A nil number selects the latest block.
func (s *Service) HeaderByNumber(ctx context.Context, number *big.Int) (*rpc.Response, error) {
	return s.Call(ctx, "headerByNumber", s.chainID, (*hexutil.Big)(number))
}

func (s *Service) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := s.CallResult(ctx, &number, "blockNumber", s.chainID)
	return number, err
}
