package ledger

import "time"

const (
	EventOpened    = "LedgerOpened"
	EventDeposited = "LedgerDeposited"
	EventWithdrawn = "LedgerWithdrawn"
	EventClosed    = "LedgerClosed"
)

// Opened is the first event raised against a ledger StateId. Apply does not
// enforce this; Service refuses Deposit, Withdraw and Close until the
// account is opened.
type Opened struct {
	Owner    string    `json:"owner"`
	OpenedAt time.Time `json:"opened_at"`
}

func (Opened) TypeCode() string { return EventOpened }

type Deposited struct {
	Amount      int64     `json:"amount"`
	Reference   string    `json:"reference"`
	DepositedAt time.Time `json:"deposited_at"`
}

func (Deposited) TypeCode() string { return EventDeposited }

type Withdrawn struct {
	Amount      int64     `json:"amount"`
	Reference   string    `json:"reference"`
	WithdrawnAt time.Time `json:"withdrawn_at"`
}

func (Withdrawn) TypeCode() string { return EventWithdrawn }

type Closed struct {
	ClosedAt time.Time `json:"closed_at"`
}

func (Closed) TypeCode() string { return EventClosed }
