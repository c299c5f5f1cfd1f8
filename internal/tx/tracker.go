package tx

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ember-tech/ember-wallet/internal/log"
)

// Source fetches past transactions for an address from a chain endpoint.
// Implementations are already bound to one network.
type Source interface {
	RecentTransactions(ctx context.Context, addr common.Address) ([]Transaction, error)
}

// Tracker maintains the ordered transaction history for the active
// (account, network) pair, newest first. Locally submitted transfers are
// recorded as pending immediately; their status only changes when a later
// load observes the transaction on chain.
type Tracker struct {
	mu      sync.RWMutex
	entries []Transaction
}

// NewTracker creates an empty history tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Load replaces the in-memory history with the endpoint's view for the
// given network, keeping locally recorded pending entries the fetch did not
// return. On fetch failure the previous history is left untouched and the
// error is returned.
func (t *Tracker) Load(ctx context.Context, src Source, addr common.Address, networkID string) error {
	fetched, err := src.RecentTransactions(ctx, addr)
	if err != nil {
		log.Tx.Warn().Err(err).Str("address", addr.Hex()).Msg("history fetch failed, keeping previous entries")
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	byHash := make(map[string]int, len(fetched))
	for i, entry := range fetched {
		byHash[entry.Hash] = i
	}

	// An observed entry wins over the local record with the same hash, but
	// may not drag a terminal status back to pending. Local records the
	// fetch missed (typically just-broadcast pendings) are retained.
	merged := make([]Transaction, len(fetched))
	copy(merged, fetched)
	for _, prev := range t.entries {
		i, seen := byHash[prev.Hash]
		if seen {
			merged[i].Status = nextStatus(prev.Status, merged[i].Status)
			continue
		}
		if prev.Status == StatusPending && prev.NetworkID == networkID {
			merged = append(merged, prev)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	t.entries = merged
	return nil
}

// RecordLocal prepends a client-constructed provisional record. If an entry
// with the same hash already exists it is replaced in place instead of
// duplicated, respecting the one-way status rule.
func (t *Tracker) RecordLocal(entry Transaction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].Hash == entry.Hash {
			entry.Status = nextStatus(t.entries[i].Status, entry.Status)
			t.entries[i] = entry
			return
		}
	}

	t.entries = append([]Transaction{entry}, t.entries...)
}

// All returns the history, newest first.
func (t *Tracker) All() []Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Transaction, len(t.entries))
	copy(out, t.entries)
	return out
}

// Reset clears the history. Used when the active account or network changes
// and a fresh load is about to run.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// Len returns the number of tracked transactions.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
