package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/eventactor/internal/core"
	"github.com/example/eventactor/internal/domain/ledger"
	"github.com/example/eventactor/internal/observer"
	"github.com/example/eventactor/internal/serialize"
	"github.com/example/eventactor/internal/storage/memory"
)

func newTestService(t *testing.T, stateId string) *ledger.Service {
	t.Helper()
	opts := core.DefaultOptions()
	opts.Archive.On = false
	return ledger.NewService(stateId, opts, core.Deps[string, ledger.Payload]{
		Serializer:    serialize.JSON{},
		EventLog:      memory.NewEventLog[string](),
		SnapshotStore: memory.NewSnapshotStore[string, ledger.Payload](),
		ArchiveStore:  memory.NewArchiveStore[string, ledger.Payload](),
		Observers:     observer.NewRegistry[string](),
	})
}

func TestOpenDepositWithdraw(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "acct-open-1")
	require.NoError(t, svc.Activate(ctx))

	require.NoError(t, svc.Open(ctx, "alice"))
	require.NoError(t, svc.Deposit(ctx, 1000, "paycheck"))
	require.NoError(t, svc.Withdraw(ctx, 400, "rent"))

	assert.Equal(t, int64(600), svc.Balance())
	assert.Equal(t, int64(3), svc.Version())
}

func TestDepositBeforeOpenFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "acct-open-2")
	require.NoError(t, svc.Activate(ctx))

	err := svc.Deposit(ctx, 100, "too-early")
	assert.ErrorIs(t, err, ledger.ErrNotOpened)
}

func TestOpenTwiceFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "acct-open-3")
	require.NoError(t, svc.Activate(ctx))
	require.NoError(t, svc.Open(ctx, "bob"))

	err := svc.Open(ctx, "bob")
	assert.ErrorIs(t, err, ledger.ErrAlreadyOpened)
}

func TestWithdrawMoreThanBalanceFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "acct-open-4")
	require.NoError(t, svc.Activate(ctx))
	require.NoError(t, svc.Open(ctx, "carol"))
	require.NoError(t, svc.Deposit(ctx, 100, "seed"))

	err := svc.Withdraw(ctx, 500, "overdraw")
	assert.ErrorIs(t, err, ledger.ErrInsufficient)
	assert.Equal(t, int64(100), svc.Balance(), "a rejected withdrawal must not touch the balance")
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "acct-open-5")
	require.NoError(t, svc.Activate(ctx))
	require.NoError(t, svc.Open(ctx, "dave"))

	assert.ErrorIs(t, svc.Deposit(ctx, 0, "zero"), ledger.ErrNonPositiveAmount)
	assert.ErrorIs(t, svc.Deposit(ctx, -5, "negative"), ledger.ErrNonPositiveAmount)
	assert.ErrorIs(t, svc.Withdraw(ctx, 0, "zero"), ledger.ErrNonPositiveAmount)
}

func TestCloseEndsTheLedgerAndFurtherRaisesFail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "acct-open-6")
	require.NoError(t, svc.Activate(ctx))
	require.NoError(t, svc.Open(ctx, "erin"))
	require.NoError(t, svc.Deposit(ctx, 50, "seed"))

	require.NoError(t, svc.Close(ctx))

	err := svc.Deposit(ctx, 10, "after-close")
	assert.ErrorIs(t, err, ledger.ErrNotOpened, "Closed sets Opened=false, so the service-level guard rejects it before reaching the actor")
}

func TestLedgerSurvivesReactivation(t *testing.T) {
	ctx := context.Background()
	opts := core.DefaultOptions()
	opts.Archive.On = false

	eventLog := memory.NewEventLog[string]()
	snapshotStore := memory.NewSnapshotStore[string, ledger.Payload]()
	archiveStore := memory.NewArchiveStore[string, ledger.Payload]()
	observers := observer.NewRegistry[string]()

	build := func() *ledger.Service {
		return ledger.NewService("acct-reactivate", opts, core.Deps[string, ledger.Payload]{
			Serializer:    serialize.JSON{},
			EventLog:      eventLog,
			SnapshotStore: snapshotStore,
			ArchiveStore:  archiveStore,
			Observers:     observers,
		})
	}

	first := build()
	require.NoError(t, first.Activate(ctx))
	require.NoError(t, first.Open(ctx, "frank"))
	require.NoError(t, first.Deposit(ctx, 250, "seed"))
	require.NoError(t, first.Deactivate(ctx))

	second := build()
	require.NoError(t, second.Activate(ctx))
	assert.Equal(t, int64(250), second.Balance())
	assert.Equal(t, int64(2), second.Version())
}
