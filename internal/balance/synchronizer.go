package balance

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/ember-tech/ember-wallet/internal/log"
	"github.com/ember-tech/ember-wallet/internal/network"
)

// ChainReader is the single endpoint capability a balance refresh needs.
type ChainReader interface {
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Dialer resolves a network to a balance-capable endpoint client.
type Dialer func(net network.Network) (ChainReader, error)

// PriceSource quotes the USD price of a native asset by its price-feed id.
type PriceSource interface {
	Price(ctx context.Context, coinID string) (float64, error)
}

// Synchronizer caches one Balance per network for the active account and
// refreshes them with isolated failure domains: no network's failure blocks,
// delays, or fails another's refresh. Failed refreshes keep the previously
// cached value (or the zero balance before any success) and record the error
// for observability only.
type Synchronizer struct {
	dial  Dialer
	price PriceSource // nil disables USD pricing

	mu      sync.RWMutex
	cache   map[string]Balance // network id -> last successful balance
	errs    map[string]error   // network id -> last refresh error, nil on success
	loading map[string]int     // network id -> in-flight refresh count

	flight singleflight.Group
}

// NewSynchronizer creates a synchronizer. price may be nil to skip USD
// valuation.
func NewSynchronizer(dial Dialer, price PriceSource) *Synchronizer {
	return &Synchronizer{
		dial:    dial,
		price:   price,
		cache:   make(map[string]Balance),
		errs:    make(map[string]error),
		loading: make(map[string]int),
	}
}

// RefreshAll refreshes every given network concurrently and returns the
// resulting per-network balances. Each network resolves independently; a
// failing endpoint yields that network's retained (or zero) balance while
// the error is recorded, never an error to the caller.
func (s *Synchronizer) RefreshAll(ctx context.Context, addr common.Address, nets []network.Network) map[string]Balance {
	results := make(map[string]Balance, len(nets))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, n := range nets {
		wg.Add(1)
		go func(n network.Network) {
			defer wg.Done()
			bal, _ := s.RefreshOne(ctx, addr, n)
			mu.Lock()
			results[n.ID] = bal
			mu.Unlock()
		}(n)
	}
	wg.Wait()

	return results
}

// RefreshOne refreshes a single network, used after a transfer to re-query
// only the affected chain. The returned error is informational: the Balance
// is always usable (fresh, retained, or zero).
func (s *Synchronizer) RefreshOne(ctx context.Context, addr common.Address, n network.Network) (Balance, error) {
	s.setLoading(n.ID, +1)
	defer s.setLoading(n.ID, -1)

	// Concurrent refreshes of the same (address, network) share one query.
	key := n.ID + "/" + addr.Hex()
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.fetch(ctx, addr, n)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.errs[n.ID] = err
		log.Balance.Warn().
			Err(err).
			Str("network", n.ID).
			Msg("balance refresh failed, keeping previous value")

		if prev, ok := s.cache[n.ID]; ok {
			return prev, err
		}
		return Zero(), err
	}

	bal := v.(Balance)
	s.cache[n.ID] = bal
	s.errs[n.ID] = nil

	log.Balance.Debug().
		Str("network", n.ID).
		Str("balance", bal.Formatted).
		Msg("balance refreshed")
	return bal, nil
}

// fetch performs the endpoint query and optional USD valuation.
func (s *Synchronizer) fetch(ctx context.Context, addr common.Address, n network.Network) (Balance, error) {
	client, err := s.dial(n)
	if err != nil {
		return Balance{}, err
	}

	wei, err := client.BalanceAt(ctx, addr)
	if err != nil {
		return Balance{}, err
	}

	bal := Balance{
		Formatted: FormatWei(wei),
		Wei:       wei.String(),
	}

	// Pricing is best effort: a dead price feed never fails a refresh.
	if s.price != nil && n.CoinGeckoID != "" {
		if quote, perr := s.price.Price(ctx, n.CoinGeckoID); perr == nil {
			usd, _ := decimal.NewFromBigInt(wei, -etherDecimals).
				Mul(decimal.NewFromFloat(quote)).
				Float64()
			bal.USD = &usd
		} else {
			log.Balance.Debug().Err(perr).Str("network", n.ID).Msg("price quote unavailable")
		}
	}

	return bal, nil
}

// Get returns the network's balance: the last successful value, or the zero
// balance if no refresh has succeeded yet.
func (s *Synchronizer) Get(networkID string) Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if bal, ok := s.cache[networkID]; ok {
		return bal
	}
	return Zero()
}

// Snapshot returns all successfully fetched balances keyed by network id.
func (s *Synchronizer) Snapshot() map[string]Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Balance, len(s.cache))
	for id, bal := range s.cache {
		out[id] = bal
	}
	return out
}

// LastErr returns the most recent refresh error for the network, or nil if
// the last refresh succeeded (or none ran). Lets callers distinguish a
// confirmed zero balance from a failed fetch.
func (s *Synchronizer) LastErr(networkID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errs[networkID]
}

// Loading reports whether a refresh for the network is in flight,
// distinguishing "stale" from "being fetched".
func (s *Synchronizer) Loading(networkID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[networkID] > 0
}

// Connected reports whether any network has ever produced a real balance.
func (s *Synchronizer) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache) > 0
}

// Reset drops all cached state. Used when the active account changes.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]Balance)
	s.errs = make(map[string]error)
}

func (s *Synchronizer) setLoading(networkID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[networkID] += delta
	if s.loading[networkID] < 0 {
		s.loading[networkID] = 0
	}
}
