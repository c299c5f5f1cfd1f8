// Package rpcclient provides a narrow client for EVM chain endpoints.
//
// The engine needs exactly three capabilities from an endpoint: query the
// native balance of an address, broadcast a signed transaction, and retrieve
// past transactions for an address. Everything else a node offers is out of
// scope.
package rpcclient

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ember-tech/ember-wallet/internal/network"
	"github.com/ember-tech/ember-wallet/internal/tx"
)

// DefaultTimeout bounds every endpoint call so one unresponsive node cannot
// stall its network's refresh indefinitely.
const DefaultTimeout = 10 * time.Second

// historyBlocks is how many recent blocks RecentTransactions scans.
const historyBlocks = 10

// historyLimit caps the number of history entries returned per load.
const historyLimit = 20

// Client talks to one network's RPC endpoint.
type Client struct {
	net     network.Network
	eth     *ethclient.Client
	timeout time.Duration
}

// Dial connects to the network's endpoint with the default timeout.
func Dial(net network.Network) (*Client, error) {
	return DialWithTimeout(net, DefaultTimeout)
}

// DialWithTimeout connects to the network's endpoint with a custom per-call
// timeout.
func DialWithTimeout(net network.Network, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	eth, err := ethclient.Dial(net.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s endpoint: %w", net.ID, err)
	}
	return &Client{net: net, eth: eth, timeout: timeout}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Network returns the network this client is bound to.
func (c *Client) Network() network.Network {
	return c.net
}

// callCtx derives a bounded context for a single endpoint call.
func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// BalanceAt queries the current native-asset balance of an address in wei.
func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	wei, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("query balance on %s: %w", c.net.ID, err)
	}
	return wei, nil
}

// PendingNonceAt returns the next nonce for an address including pending
// transactions.
func (c *Client) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	nonce, err := c.eth.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("query nonce on %s: %w", c.net.ID, err)
	}
	return nonce, nil
}

// SuggestGasPrice returns the endpoint's gas price suggestion in wei.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("query gas price on %s: %w", c.net.ID, err)
	}
	return price, nil
}

// SendTransaction broadcasts a signed transaction to the network.
func (c *Client) SendTransaction(ctx context.Context, signed *types.Transaction) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("broadcast on %s: %w", c.net.ID, err)
	}
	return nil
}

// RecentTransactions scans the most recent blocks for transfers to or from
// the address and returns them newest first. Endpoints without archive or
// indexing support still answer this, which is why the engine scans instead
// of relying on an explorer API.
func (c *Client) RecentTransactions(ctx context.Context, addr common.Address) ([]tx.Transaction, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("query head on %s: %w", c.net.ID, err)
	}

	signer := types.LatestSignerForChainID(big.NewInt(c.net.ChainID))

	var out []tx.Transaction
	for i := int64(0); i < historyBlocks && len(out) < historyLimit; i++ {
		num := new(big.Int).Sub(head.Number, big.NewInt(i))
		if num.Sign() < 0 {
			break
		}

		block, err := c.eth.BlockByNumber(ctx, num)
		if err != nil {
			return nil, fmt.Errorf("query block %s on %s: %w", num, c.net.ID, err)
		}

		for _, blockTx := range block.Transactions() {
			if len(out) >= historyLimit {
				break
			}

			from, err := types.Sender(signer, blockTx)
			if err != nil {
				continue
			}
			isFrom := from == addr
			isTo := blockTx.To() != nil && *blockTx.To() == addr
			if !isFrom && !isTo {
				continue
			}

			out = append(out, c.historyEntry(ctx, blockTx, from, block.Time()))
		}
	}

	return out, nil
}

// historyEntry converts a matched block transaction into a history record,
// resolving its final status from the receipt.
func (c *Client) historyEntry(ctx context.Context, blockTx *types.Transaction, from common.Address, blockTime uint64) tx.Transaction {
	entry := tx.Transaction{
		Hash:      blockTx.Hash().Hex(),
		From:      from.Hex(),
		Value:     blockTx.Value().String(),
		GasPrice:  blockTx.GasPrice().String(),
		GasUsed:   "0",
		Timestamp: time.Unix(int64(blockTime), 0),
		Status:    tx.StatusConfirmed,
		NetworkID: c.net.ID,
	}
	if to := blockTx.To(); to != nil {
		entry.To = to.Hex()
	}

	// Mined-but-reverted transfers surface as failed. A missing receipt
	// leaves the optimistic confirmed status rather than failing the scan.
	if receipt, err := c.eth.TransactionReceipt(ctx, blockTx.Hash()); err == nil {
		entry.GasUsed = fmt.Sprintf("%d", receipt.GasUsed)
		if receipt.Status != types.ReceiptStatusSuccessful {
			entry.Status = tx.StatusFailed
		}
	}

	return entry
}
