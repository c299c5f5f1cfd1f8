// Package balance tracks native-asset balances across networks.
package balance

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// etherDecimals is the unit scale of the native asset on the registered
// chains (wei per whole unit = 10^18).
const etherDecimals = 18

// Balance is the native-asset balance of the active account on one network.
// Wei is the integer count of the smallest unit as a string; Formatted is
// the whole-unit rendering with exactly 4 decimal digits. USD is nil when
// pricing was unavailable.
type Balance struct {
	Formatted string   `json:"formatted"`
	Wei       string   `json:"wei"`
	USD       *float64 `json:"usd,omitempty"`
}

// Zero is the defined balance before any successful fetch.
func Zero() Balance {
	return Balance{Formatted: "0.0000", Wei: "0"}
}

// FormatWei renders a wei amount in whole units with exactly 4 decimal
// digits, rounded (not truncated).
func FormatWei(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -etherDecimals).StringFixed(4)
}
