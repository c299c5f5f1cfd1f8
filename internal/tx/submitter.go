package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/ember-tech/ember-wallet/internal/log"
	"github.com/ember-tech/ember-wallet/internal/network"
	"github.com/ember-tech/ember-wallet/internal/wallet"
)

// TransferGasLimit is the fixed gas limit for a native value transfer.
// Simple transfers cost exactly this much; the engine does no fee estimation.
const TransferGasLimit = 21000

// etherDecimals is the unit scale of the native asset (wei per ether = 10^18).
const etherDecimals = 18

// Validation errors surfaced synchronously to the caller. Neither triggers
// any network I/O.
var (
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// SubmissionError wraps a signing or broadcast failure. It is always
// surfaced to the caller; retry is the caller's decision.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Broadcaster is the narrow endpoint capability Send needs.
type Broadcaster interface {
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Dialer resolves a network to a broadcast-capable endpoint client.
type Dialer func(net network.Network) (Broadcaster, error)

// Submitter signs and broadcasts native-asset transfers.
type Submitter struct {
	dial Dialer
}

// NewSubmitter creates a submitter that reaches endpoints through dial.
func NewSubmitter(dial Dialer) *Submitter {
	return &Submitter{dial: dial}
}

// PendingTx is the synchronously returned handle for a broadcast transfer.
// It carries enough to construct a provisional history entry; confirmation
// is observed later via history refresh, never awaited here.
type PendingTx struct {
	Hash     string
	From     common.Address
	To       common.Address
	Value    *big.Int
	GasPrice *big.Int
}

// Record builds the provisional pending history entry for this transfer.
func (p *PendingTx) Record(networkID string) Transaction {
	return Transaction{
		Hash:      p.Hash,
		From:      p.From.Hex(),
		To:        p.To.Hex(),
		Value:     p.Value.String(),
		GasPrice:  p.GasPrice.String(),
		GasUsed:   "0",
		Timestamp: time.Now(),
		Status:    StatusPending,
		NetworkID: networkID,
	}
}

// Send validates, signs, and broadcasts a transfer of amount (a decimal
// string in whole native units, e.g. "0.5") to the given recipient.
// Exactly one signed transaction is broadcast on success; no retry is
// attempted on failure.
func (s *Submitter) Send(ctx context.Context, acct *wallet.Account, to, amount string, net network.Network) (*PendingTx, error) {
	if !wallet.IsValidAddress(to) {
		return nil, ErrInvalidRecipient
	}

	wei, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}

	client, err := s.dial(net)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	nonce, err := client.PendingNonceAt(ctx, acct.Address)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("fetch nonce: %w", err)}
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("fetch gas price: %w", err)}
	}

	toAddr := common.HexToAddress(to)
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &toAddr,
		Value:    wei,
		Gas:      TransferGasLimit,
		GasPrice: gasPrice,
	})

	// EIP-155 signing binds the transaction to the target chain id,
	// preventing replay on the other registered networks.
	signer := types.NewEIP155Signer(big.NewInt(net.ChainID))
	signed, err := types.SignTx(unsigned, signer, acct.PrivateKey)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("sign: %w", err)}
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("broadcast: %w", err)}
	}

	log.Tx.Info().
		Str("hash", signed.Hash().Hex()).
		Str("to", toAddr.Hex()).
		Str("network", net.ID).
		Str("value_wei", wei.String()).
		Msg("transaction broadcast")

	return &PendingTx{
		Hash:     signed.Hash().Hex(),
		From:     acct.Address,
		To:       toAddr,
		Value:    wei,
		GasPrice: gasPrice,
	}, nil
}

// parseAmount converts a decimal string in whole native units to wei.
// Non-numeric, non-positive, or sub-wei precision amounts are rejected.
func parseAmount(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	wei := d.Shift(etherDecimals)
	if !wei.IsInteger() {
		return nil, ErrInvalidAmount
	}
	return wei.BigInt(), nil
}
