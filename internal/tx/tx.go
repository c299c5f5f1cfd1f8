// Package tx implements transaction submission and history tracking.
package tx

import "time"

// Status is the lifecycle state of a transaction.
type Status string

const (
	// StatusPending is provisional: assumed locally the moment a hash is
	// returned, before the network has necessarily seen the transaction.
	StatusPending Status = "pending"

	// StatusConfirmed means the transaction was observed mined and successful.
	StatusConfirmed Status = "confirmed"

	// StatusFailed means the transaction was observed mined but reverted.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Transaction is one entry in the account's history.
// Value, GasPrice and GasUsed are integer strings in the smallest units.
type Transaction struct {
	Hash      string    `json:"hash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Value     string    `json:"value"`
	GasPrice  string    `json:"gas_price"`
	GasUsed   string    `json:"gas_used"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	NetworkID string    `json:"network_id"`
}

// nextStatus applies the one-way transition rule: pending may become
// confirmed or failed, terminal states never revert.
func nextStatus(current, observed Status) Status {
	if current.Terminal() && observed == StatusPending {
		return current
	}
	return observed
}
