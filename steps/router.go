// Package steps holds multi-call flows shared by functional scenarios.
package steps

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-backend-tests/api"
	"github.com/status-im/status-backend-tests/logutils"
	"github.com/status-im/status-backend-tests/params"
	"github.com/status-im/status-backend-tests/services/wallet"
	"github.com/status-im/status-backend-tests/signal"
)

// RouterSignals are the signal types SendRouterTransaction waits for. Pass
// them to api.WithAwaitedSignals when the backend filters signal types.
var RouterSignals = []signal.SignalType{
	signal.SuggestedRoutes,
	signal.SignRouterTransactions,
	signal.RouterSendingTransactionsStarted,
	signal.RouterTransactionsSent,
	signal.TransactionStatusChanged,
}

// ErrRouter is returned when a router signal carries an error response.
var ErrRouter = errors.New("wallet router failed")

// RouterTransaction is the outcome of SendRouterTransaction.
type RouterTransaction struct {
	UUID       string
	Routes     *signal.SuggestedRoutesEvent
	Signing    *signal.RouterSignTransactionsEvent
	Signatures map[string]wallet.Signature
	Started    *signal.RouterSendingTransactionsStartedEvent
	Sent       *signal.RouterTransactionsSentEvent
	Status     *signal.TransactionStatusChangedEvent
}

// Hash is the hash of the sent transaction as reported by the status signal.
func (t *RouterTransaction) Hash() common.Hash {
	if t.Status == nil {
		return common.Hash{}
	}
	return t.Status.Hash
}

// TransferParams returns route params for an ETH transfer of amount wei.
func TransferParams(from, to common.Address, amount *big.Int) wallet.RouteParams {
	return wallet.RouteParams{
		UUID:                 uuid.NewString(),
		AddrFrom:             from,
		AddrTo:               to,
		AmountIn:             (*hexutil.Big)(amount),
		AmountOut:            (*hexutil.Big)(big.NewInt(0)),
		TokenID:              "ETH",
		DisabledFromChainIDs: []uint64{},
		DisabledToChainIDs:   []uint64{},
		GasFeeMode:           params.GasFeeModeMedium,
	}
}

// SendRouterTransaction drives the wallet router from route suggestion to the
// transaction status change: it requests routes, builds the transactions of
// the best route, signs every hash with the password of signer and sends the
// signed transactions. Every signal is awaited by the route uuid.
func SendRouterTransaction(ctx context.Context, backend *api.StatusBackend, route wallet.RouteParams, signer params.Account, slippagePercentage float64) (*RouterTransaction, error) {
	if route.UUID == "" {
		route.UUID = uuid.NewString()
	}
	logger := logutils.ZapLogger().Named("Steps").With(zap.String("backend", backend.Name()), zap.String("uuid", route.UUID))
	tx := &RouterTransaction{UUID: route.UUID}
	flow := &routerFlow{signals: backend.Signals(), uuid: route.UUID}
	defer flow.cancel()

	routes, err := flow.prepare(signal.SuggestedRoutes, func(env *signal.Envelope) bool {
		event, ok := env.Event.(*signal.SuggestedRoutesEvent)
		return ok && event.UUID == route.UUID
	})
	if err != nil {
		return nil, err
	}
	if _, err := backend.Wallet.GetSuggestedRoutesAsync(ctx, route); err != nil {
		return nil, errors.Wrap(err, "get suggested routes")
	}
	env, err := wait(ctx, routes)
	if err != nil {
		return nil, errors.Wrap(err, "wait for suggested routes")
	}
	tx.Routes = env.Event.(*signal.SuggestedRoutesEvent)
	if tx.Routes.ErrorResponse != nil {
		return tx, routerError(tx.Routes.ErrorResponse)
	}

	signing, err := flow.prepare(signal.SignRouterTransactions, flow.sendDetails)
	if err != nil {
		return nil, err
	}
	if _, err := backend.Wallet.BuildTransactionsFromRoute(ctx, route.UUID, slippagePercentage); err != nil {
		return tx, errors.Wrap(err, "build transactions from route")
	}
	env, err = wait(ctx, signing)
	if err != nil {
		return tx, errors.Wrap(err, "wait for sign request")
	}
	tx.Signing = env.Event.(*signal.RouterSignTransactionsEvent)
	if tx.Signing.SendDetails.ErrorResponse != nil {
		return tx, routerError(tx.Signing.SendDetails.ErrorResponse)
	}

	tx.Signatures = make(map[string]wallet.Signature, len(tx.Signing.SigningDetails.Hashes))
	for _, hash := range tx.Signing.SigningDetails.Hashes {
		signature, err := backend.Wallet.SignMessage(ctx, hash, tx.Signing.SigningDetails.Address, signer.Password)
		if err != nil {
			return tx, errors.Wrapf(err, "sign %s", hash)
		}
		tx.Signatures[hash], err = wallet.SplitSignature(signature)
		if err != nil {
			return tx, errors.Wrapf(err, "split signature of %s", hash)
		}
	}
	logger.Debug("signed router transactions", zap.Int("count", len(tx.Signatures)))

	started, err := flow.prepare(signal.RouterSendingTransactionsStarted, flow.sendDetails)
	if err != nil {
		return tx, err
	}
	sent, err := flow.prepare(signal.RouterTransactionsSent, flow.sendDetails)
	if err != nil {
		return tx, err
	}
	status, err := flow.prepare(signal.TransactionStatusChanged, flow.statusDetails)
	if err != nil {
		return tx, err
	}
	if _, err := backend.Wallet.SendRouterTransactionsWithSignatures(ctx, route.UUID, tx.Signatures); err != nil {
		return tx, errors.Wrap(err, "send router transactions")
	}

	if env, err = wait(ctx, started); err != nil {
		return tx, errors.Wrap(err, "wait for sending started")
	}
	tx.Started = env.Event.(*signal.RouterSendingTransactionsStartedEvent)
	if env, err = wait(ctx, sent); err != nil {
		return tx, errors.Wrap(err, "wait for transactions sent")
	}
	tx.Sent = env.Event.(*signal.RouterTransactionsSentEvent)
	if tx.Sent.SendDetails.ErrorResponse != nil {
		return tx, routerError(tx.Sent.SendDetails.ErrorResponse)
	}
	if env, err = wait(ctx, status); err != nil {
		return tx, errors.Wrap(err, "wait for transaction status")
	}
	tx.Status = env.Event.(*signal.TransactionStatusChangedEvent)

	logger.Info("router transaction sent", zap.Stringer("hash", tx.Status.Hash), zap.String("status", tx.Status.Status))
	return tx, nil
}

// routerFlow tracks the expectations of one router request so that an early
// return does not leave them registered.
type routerFlow struct {
	signals      *signal.Client
	uuid         string
	expectations []*signal.Expectation
}

func (f *routerFlow) prepare(typ signal.SignalType, match signal.Predicate) (*signal.Expectation, error) {
	e, err := f.signals.PrepareExpectation(typ, match, 1)
	if err != nil {
		return nil, errors.Wrapf(err, "prepare %s", typ)
	}
	f.expectations = append(f.expectations, e)
	return e, nil
}

func (f *routerFlow) cancel() {
	for _, e := range f.expectations {
		e.Cancel()
	}
}

func (f *routerFlow) sendDetails(env *signal.Envelope) bool {
	var details signal.SendDetails
	switch event := env.Event.(type) {
	case *signal.RouterSignTransactionsEvent:
		details = event.SendDetails
	case *signal.RouterSendingTransactionsStartedEvent:
		details = event.SendDetails
	case *signal.RouterTransactionsSentEvent:
		details = event.SendDetails
	default:
		return false
	}
	return details.UUID == f.uuid
}

// statusDetails accepts status changes of this request. Backends that do not
// attach send details to status changes are matched on any status change.
func (f *routerFlow) statusDetails(env *signal.Envelope) bool {
	event, ok := env.Event.(*signal.TransactionStatusChangedEvent)
	if !ok {
		return false
	}
	return event.SendDetails == nil || event.SendDetails.UUID == f.uuid
}

func wait(ctx context.Context, e *signal.Expectation) (*signal.Envelope, error) {
	envs, err := e.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return envs[len(envs)-1], nil
}

func routerError(resp *signal.ErrorResponse) error {
	return errors.Wrapf(ErrRouter, "%s: %s", resp.Code, resp.Details)
}
