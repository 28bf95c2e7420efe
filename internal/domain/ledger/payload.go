// Package ledger is a minimal event-sourced balance ledger: one actor per
// account, raising Opened/Deposited/Withdrawn/Closed events against a
// core.Actor[string, Payload]. The package owns its event union end to
// end: the event structs, their type codes, and the Apply function that
// folds them into the payload.
package ledger

import "errors"

var (
	ErrNotOpened         = errors.New("ledger: account not opened")
	ErrAlreadyOpened     = errors.New("ledger: account already opened")
	ErrInsufficient      = errors.New("ledger: insufficient balance")
	ErrNonPositiveAmount = errors.New("ledger: amount must be positive")
)

// Payload is the in-memory state a ledger actor's Snapshot carries.
type Payload struct {
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
	Opened  bool   `json:"opened"`
}
