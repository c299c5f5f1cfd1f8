// Package session owns the live state of an unlocked wallet: the active
// account, the selected network, cached balances, transaction history,
// and dapp connections.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ember-tech/ember-wallet/config"
	"github.com/ember-tech/ember-wallet/internal/balance"
	"github.com/ember-tech/ember-wallet/internal/dapp"
	"github.com/ember-tech/ember-wallet/internal/log"
	"github.com/ember-tech/ember-wallet/internal/network"
	"github.com/ember-tech/ember-wallet/internal/rpcclient"
	"github.com/ember-tech/ember-wallet/internal/tx"
	"github.com/ember-tech/ember-wallet/internal/wallet"
)

// The endpoint client must cover every capability the session wires it to.
var (
	_ balance.ChainReader = (*rpcclient.Client)(nil)
	_ tx.Broadcaster      = (*rpcclient.Client)(nil)
	_ tx.Source           = (*rpcclient.Client)(nil)
)

// ErrNoAccount is returned by operations that need an active account.
var ErrNoAccount = errors.New("no active account")

// Session coordinates the wallet subsystems for one active account.
type Session struct {
	cfg      *config.Config
	networks []network.Network

	balances  *balance.Synchronizer
	history   *tx.Tracker
	submitter *tx.Submitter
	dapps     *dapp.Store

	mu      sync.RWMutex
	account *wallet.Account
	current network.Network
}

// New creates a session with no active account, on the default network.
func New(cfg *config.Config) *Session {
	s := &Session{
		cfg:      cfg,
		networks: network.All(),
		history:  tx.NewTracker(),
		dapps:    dapp.NewSeededStore(),
		current:  network.Default(),
	}

	var price balance.PriceSource
	if cfg.Price.Enabled {
		if cfg.Price.URL != "" {
			price = balance.NewCoinGeckoClientWithURL(cfg.Price.URL)
		} else {
			price = balance.NewCoinGeckoClient()
		}
	}

	s.balances = balance.NewSynchronizer(func(n network.Network) (balance.ChainReader, error) {
		return s.dialClient(n)
	}, price)
	s.submitter = tx.NewSubmitter(func(n network.Network) (tx.Broadcaster, error) {
		return s.dialClient(n)
	})

	return s
}

// dialClient connects to a network's endpoint, honoring any configured
// override of the registry URL.
func (s *Session) dialClient(n network.Network) (*rpcclient.Client, error) {
	if override := s.cfg.RPCURL(n.ID); override != "" {
		n.RPCURL = override
	}
	return rpcclient.DialWithTimeout(n, s.cfg.RPCTimeout)
}

// CreateAccount generates a fresh mnemonic wallet and activates it.
func (s *Session) CreateAccount(ctx context.Context) (*wallet.Account, error) {
	acct, err := wallet.NewRandomAccount()
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.activate(ctx, acct)
	return acct, nil
}

// ImportAccount restores a wallet from a recovery phrase and activates it.
func (s *Session) ImportAccount(ctx context.Context, mnemonic string) (*wallet.Account, error) {
	acct, err := wallet.DeriveAccount(mnemonic)
	if err != nil {
		return nil, err
	}
	s.activate(ctx, acct)
	return acct, nil
}

// ImportPrivateKey imports a wallet from a raw hex private key and
// activates it. The account carries no recovery phrase.
func (s *Session) ImportPrivateKey(ctx context.Context, hexKey string) (*wallet.Account, error) {
	acct, err := wallet.AccountFromPrivateKey(hexKey)
	if err != nil {
		return nil, err
	}
	s.activate(ctx, acct)
	return acct, nil
}

// activate swaps in the account, drops state belonging to the previous one,
// and warms balances and history for the new address.
func (s *Session) activate(ctx context.Context, acct *wallet.Account) {
	s.mu.Lock()
	s.account = acct
	s.mu.Unlock()

	s.balances.Reset()
	s.history.Reset()

	log.Session.Info().
		Str("address", acct.Address.Hex()).
		Msg("account activated")

	s.balances.RefreshAll(ctx, acct.Address, s.networks)
	if err := s.LoadHistory(ctx); err != nil {
		log.Session.Warn().Err(err).Msg("history load failed")
	}
}

// Account returns the active account, or nil when the wallet is locked.
func (s *Session) Account() *wallet.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// CurrentNetwork returns the selected network.
func (s *Session) CurrentNetwork() network.Network {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Networks returns all supported networks in registry order.
func (s *Session) Networks() []network.Network {
	return s.networks
}

// SwitchNetwork selects a different network and loads its history fresh.
// Cached balances for other networks are kept.
func (s *Session) SwitchNetwork(ctx context.Context, networkID string) error {
	n, err := network.ByID(networkID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = n
	acct := s.account
	s.mu.Unlock()

	log.Session.Info().Str("network", n.ID).Msg("network switched")

	if acct == nil {
		return nil
	}
	s.balances.RefreshOne(ctx, acct.Address, n)
	return s.LoadHistory(ctx)
}

// Send transfers native currency on the current network, records the
// pending entry locally, and re-queries the sender's balance.
func (s *Session) Send(ctx context.Context, to, amount string) (*tx.PendingTx, error) {
	s.mu.RLock()
	acct := s.account
	current := s.current
	s.mu.RUnlock()

	if acct == nil {
		return nil, ErrNoAccount
	}

	pending, err := s.submitter.Send(ctx, acct, to, amount, current)
	if err != nil {
		return nil, err
	}

	s.history.RecordLocal(pending.Record(current.ID))
	s.balances.RefreshOne(ctx, acct.Address, current)

	return pending, nil
}

// LoadHistory replaces the tracker contents with the current network's
// recent transactions for the active account.
func (s *Session) LoadHistory(ctx context.Context) error {
	s.mu.RLock()
	acct := s.account
	current := s.current
	s.mu.RUnlock()

	if acct == nil {
		return ErrNoAccount
	}

	client, err := s.dialClient(current)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	defer client.Close()

	return s.history.Load(ctx, client, acct.Address, current.ID)
}

// RefreshBalances re-queries every network for the active account.
func (s *Session) RefreshBalances(ctx context.Context) (map[string]balance.Balance, error) {
	s.mu.RLock()
	acct := s.account
	s.mu.RUnlock()

	if acct == nil {
		return nil, ErrNoAccount
	}
	return s.balances.RefreshAll(ctx, acct.Address, s.networks), nil
}

// Balances exposes the synchronizer for balance reads.
func (s *Session) Balances() *balance.Synchronizer {
	return s.balances
}

// History returns the tracked transactions, newest first.
func (s *Session) History() []tx.Transaction {
	return s.history.All()
}

// DApps exposes the dapp connection store.
func (s *Session) DApps() *dapp.Store {
	return s.dapps
}

// Connected reports whether any network has delivered a real balance.
func (s *Session) Connected() bool {
	return s.balances.Connected()
}
