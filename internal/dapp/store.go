// Package dapp tracks which decentralized applications the wallet has
// authorized and what each one is allowed to do.
package dapp

import (
	"sync"

	"github.com/ember-tech/ember-wallet/internal/log"
)

// Connection describes one dapp's authorization state.
type Connection struct {
	Origin      string   `json:"origin"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Permissions []string `json:"permissions"`
	Connected   bool     `json:"connected"`
}

// Store holds dapp connections in insertion order.
type Store struct {
	mu    sync.RWMutex
	order []string
	conns map[string]*Connection
}

// NewStore returns an empty connection store.
func NewStore() *Store {
	return &Store{conns: make(map[string]*Connection)}
}

// NewSeededStore returns a store preloaded with the default connections
// shown on first run.
func NewSeededStore() *Store {
	s := NewStore()
	s.Upsert(Connection{
		Origin:      "https://app.uniswap.org",
		Name:        "Uniswap",
		Icon:        "🦄",
		Permissions: []string{"eth_accounts", "eth_sendTransaction"},
		Connected:   true,
	})
	s.Upsert(Connection{
		Origin:      "https://opensea.io",
		Name:        "OpenSea",
		Icon:        "🌊",
		Permissions: []string{"eth_accounts"},
		Connected:   false,
	})
	return s
}

// Upsert adds a connection or replaces the entry with the same origin.
// First insertion fixes the origin's position in the listing order.
func (s *Store) Upsert(conn Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[conn.Origin]; !ok {
		s.order = append(s.order, conn.Origin)
	}
	c := conn
	s.conns[conn.Origin] = &c

	log.DApp.Debug().
		Str("origin", conn.Origin).
		Bool("connected", conn.Connected).
		Msg("dapp connection stored")
}

// Get returns the connection for an origin.
func (s *Store) Get(origin string) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conns[origin]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// All returns the connections in insertion order.
func (s *Store) All() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Connection, 0, len(s.order))
	for _, origin := range s.order {
		out = append(out, *s.conns[origin])
	}
	return out
}

// Disconnect revokes an origin's session, keeping the entry so the
// listing still shows it. Unknown origins are a no-op.
func (s *Store) Disconnect(origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[origin]
	if !ok {
		return
	}
	c.Connected = false

	log.DApp.Info().Str("origin", origin).Msg("dapp disconnected")
}

// Connected reports how many origins hold an active session.
func (s *Store) Connected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.conns {
		if c.Connected {
			n++
		}
	}
	return n
}

// Len returns the number of stored connections.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}
