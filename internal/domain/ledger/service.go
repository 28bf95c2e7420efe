package ledger

import (
	"context"
	"time"

	"github.com/example/eventactor/internal/core"
)

// Service is a thin per-account wrapper over core.Actor[string, Payload]:
// a small surface of business operations, each raising exactly one event.
type Service struct {
	actor *core.Actor[string, Payload]
}

// NewService constructs a Service around a freshly built, not-yet-activated
// actor. Callers must call Activate before Open/Deposit/Withdraw/Close.
func NewService(stateId string, opts core.Options, deps core.Deps[string, Payload]) *Service {
	deps.Apply = Apply
	if deps.CreateSnap == nil {
		deps.CreateSnap = func() Payload { return Payload{} }
	}
	return &Service{actor: core.NewActor("Ledger", stateId, opts, deps)}
}

func (s *Service) Activate(ctx context.Context) error   { return s.actor.Activate(ctx) }
func (s *Service) Deactivate(ctx context.Context) error { return s.actor.Deactivate(ctx) }
func (s *Service) Balance() int64                       { return s.actor.Snapshot().Payload.Balance }
func (s *Service) Version() int64                       { return s.actor.Version() }

// Announce publishes a bare, uncommitted message to the bus — operational
// signals that aren't ledger events and never touch the event log. The
// message's wire type code is resolved through the actor's type registry.
func (s *Service) Announce(ctx context.Context, msg any) error {
	return s.actor.Publish(ctx, msg)
}

func (s *Service) Open(ctx context.Context, owner string) error {
	if s.actor.Snapshot().Payload.Opened {
		return ErrAlreadyOpened
	}
	_, err := s.actor.Raise(ctx, Opened{Owner: owner, OpenedAt: time.Now()}, nil)
	return err
}

func (s *Service) Deposit(ctx context.Context, amount int64, reference string) error {
	if !s.actor.Snapshot().Payload.Opened {
		return ErrNotOpened
	}
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	_, err := s.actor.Raise(ctx, Deposited{Amount: amount, Reference: reference, DepositedAt: time.Now()}, nil)
	return err
}

func (s *Service) Withdraw(ctx context.Context, amount int64, reference string) error {
	if !s.actor.Snapshot().Payload.Opened {
		return ErrNotOpened
	}
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if s.actor.Snapshot().Payload.Balance < amount {
		return ErrInsufficient
	}
	_, err := s.actor.Raise(ctx, Withdrawn{Amount: amount, Reference: reference, WithdrawnAt: time.Now()}, nil)
	return err
}

func (s *Service) Close(ctx context.Context) error {
	if !s.actor.Snapshot().Payload.Opened {
		return ErrNotOpened
	}
	if _, err := s.actor.Raise(ctx, Closed{ClosedAt: time.Now()}, nil); err != nil {
		return err
	}
	return s.actor.Over(ctx, core.OverArchivingEvent)
}
