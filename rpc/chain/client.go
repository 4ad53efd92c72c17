// Package chain connects to the local test chain (Anvil) the backend under
// test is configured to use.
package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/status-im/status-backend-tests/logutils"
)

const (
	healthPollInterval  = 100 * time.Millisecond
	receiptPollInterval = 500 * time.Millisecond
)

type Client struct {
	url    string
	eth    *ethclient.Client
	logger *zap.Logger
}

// Dial connects to the chain node at url. Dialing an HTTP endpoint does not
// contact the node; use WaitForHealthy for that.
func Dial(ctx context.Context, url string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dial chain node %s", url)
	}
	return &Client{
		url:    url,
		eth:    eth,
		logger: logutils.ZapLogger().Named("Chain").With(zap.String("url", url)),
	}, nil
}

func (c *Client) URL() string {
	return c.url
}

// Eth exposes the underlying go-ethereum client.
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

func (c *Client) Close() {
	c.eth.Close()
}

// WaitForHealthy polls the node until it answers eth_chainId or timeout
// elapses.
func (c *Client) WaitForHealthy(ctx context.Context, timeout time.Duration) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := backoff.WithContext(backoff.NewConstantBackOff(healthPollInterval), ctx)
	err := backoff.Retry(func() error {
		_, err := c.eth.ChainID(ctx)
		if err != nil {
			c.logger.Debug("chain node is not healthy yet", zap.Error(err))
		}
		return err
	}, b)
	if err != nil {
		return errors.Wrapf(err, "chain node was not healthy after %s", timeout)
	}

	c.logger.Info("chain node is healthy", zap.Duration("after", time.Since(start)))
	return nil
}

func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}

// BalanceAt returns the latest balance of account in wei.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, account, nil)
}

// WaitForReceipt polls for the receipt of a mined transaction until ctx is
// done.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	b := backoff.WithContext(backoff.NewConstantBackOff(receiptPollInterval), ctx)
	err := backoff.Retry(func() error {
		r, err := c.eth.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		receipt = r
		return nil
	}, b)
	if err != nil {
		return nil, errors.Wrapf(err, "no receipt for %s", hash.Hex())
	}
	return receipt, nil
}
