package steps

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/status-im/status-backend-tests/api"
	"github.com/status-im/status-backend-tests/services/ethclient"
)

const (
	// DefaultPendingTimeout bounds WaitUntilTxNotPending.
	DefaultPendingTimeout = 10 * time.Second
	pendingPollInterval   = 500 * time.Millisecond
)

// ErrTxPending is returned when a transaction is still pending after the
// timeout.
var ErrTxPending = errors.New("transaction is still pending")

// WaitUntilTxNotPending polls ethclient_transactionByHash on the backend's
// chain until the transaction is no longer pending and returns it.
func WaitUntilTxNotPending(ctx context.Context, backend *api.StatusBackend, hash common.Hash, timeout time.Duration) (json.RawMessage, error) {
	chain := ethclient.New(backend.RPC(), backend.Config().AnvilNetworkID)
	return waitUntilTxNotPending(ctx, chain, hash, timeout)
}

func waitUntilTxNotPending(ctx context.Context, chain *ethclient.Service, hash common.Hash, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		tx      *ethclient.Transaction
		pending bool
	)
	err := backoff.Retry(func() error {
		var err error
		tx, err = chain.TransactionByHash(ctx, hash)
		if err != nil {
			return backoff.Permanent(err)
		}
		if pending = tx.IsPending; pending {
			return ErrTxPending
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(pendingPollInterval), ctx))
	if err != nil {
		if pending && ctx.Err() != nil {
			return nil, errors.Wrapf(ErrTxPending, "%s after %s", hash.Hex(), timeout)
		}
		return nil, err
	}
	return tx.Tx, nil
}
