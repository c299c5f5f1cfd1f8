// Package network holds the static catalogue of supported chains.
package network

import (
	"errors"
	"fmt"
)

// ErrUnknownNetwork is returned when a network id is not in the catalogue.
var ErrUnknownNetwork = errors.New("unknown network")

// Network describes one supported chain. The catalogue is process-wide
// immutable configuration; networks are referenced by ID everywhere else.
type Network struct {
	ID          string
	Name        string
	Symbol      string
	RPCURL      string
	ExplorerURL string
	ChainID     int64
	Color       string

	// CoinGeckoID is the price-feed identifier for the native asset.
	// Empty disables USD pricing for the network.
	CoinGeckoID string
}

// registry is the ordered catalogue. Order is stable so callers can iterate
// deterministically.
var registry = []Network{
	{
		ID:          "ethereum",
		Name:        "Ethereum",
		Symbol:      "ETH",
		RPCURL:      "https://eth-mainnet.g.alchemy.com/v2/demo",
		ExplorerURL: "https://etherscan.io",
		ChainID:     1,
		Color:       "#627EEA",
		CoinGeckoID: "ethereum",
	},
	{
		ID:          "bsc",
		Name:        "Binance Smart Chain",
		Symbol:      "BNB",
		RPCURL:      "https://bsc-dataseed1.binance.org",
		ExplorerURL: "https://bscscan.com",
		ChainID:     56,
		Color:       "#F3BA2F",
		CoinGeckoID: "binancecoin",
	},
	{
		ID:          "polygon",
		Name:        "Polygon",
		Symbol:      "MATIC",
		RPCURL:      "https://polygon-rpc.com",
		ExplorerURL: "https://polygonscan.com",
		ChainID:     137,
		Color:       "#8247E5",
		CoinGeckoID: "matic-network",
	},
}

// All returns the supported networks in catalogue order.
func All() []Network {
	out := make([]Network, len(registry))
	copy(out, registry)
	return out
}

// ByID looks up a network by its short id.
func ByID(id string) (Network, error) {
	for _, n := range registry {
		if n.ID == id {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, id)
}

// Default returns the network selected at wallet startup.
func Default() Network {
	return registry[0]
}
