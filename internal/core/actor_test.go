package core_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/eventactor/internal/core"
	"github.com/example/eventactor/internal/observer"
	"github.com/example/eventactor/internal/serialize"
	"github.com/example/eventactor/internal/storage/memory"
)

// counterPayload is a minimal Payload for exercising the actor core without
// pulling in the ledger domain package.
type counterPayload struct {
	Value int64
}

const eventIncremented = "Incremented"

type incremented struct {
	By int64
}

func (incremented) TypeCode() string { return eventIncremented }

func applyCounter(p *counterPayload, e core.FullyEvent[string]) error {
	if e.TypeCode != eventIncremented {
		return nil
	}
	var data incremented
	if err := json.Unmarshal(e.PayloadBytes, &data); err != nil {
		return err
	}
	p.Value += data.By
	return nil
}

type testRig struct {
	eventLog      *memory.EventLog[string]
	snapshotStore *memory.SnapshotStore[string, counterPayload]
	archiveStore  *memory.ArchiveStore[string, counterPayload]
	observers     *observer.Registry[string]
}

func newRig() *testRig {
	return &testRig{
		eventLog:      memory.NewEventLog[string](),
		snapshotStore: memory.NewSnapshotStore[string, counterPayload](),
		archiveStore:  memory.NewArchiveStore[string, counterPayload](),
		observers:     observer.NewRegistry[string](),
	}
}

func (r *testRig) newActor(stateId string, opts core.Options) *core.Actor[string, counterPayload] {
	return core.NewActor[string, counterPayload]("Counter", stateId, opts, core.Deps[string, counterPayload]{
		Apply:         applyCounter,
		Serializer:    serialize.JSON{},
		EventLog:      r.eventLog,
		SnapshotStore: r.snapshotStore,
		ArchiveStore:  r.archiveStore,
		Observers:     r.observers,
	})
}

func noArchiveOpts() core.Options {
	opts := core.DefaultOptions()
	opts.Archive.On = false
	return opts
}

func TestRaiseAppliesAndPersists(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := rig.newActor("acct-1", noArchiveOpts())
	require.NoError(t, actor.Activate(ctx))

	ok, err := actor.Raise(ctx, incremented{By: 5}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(5), actor.Snapshot().Payload.Value)
	assert.Equal(t, int64(1), actor.Version())
}

func TestRaiseIdempotentOnSameUniqueKey(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := rig.newActor("acct-2", noArchiveOpts())
	require.NoError(t, actor.Activate(ctx))

	uid := &core.EventUID{Key: "fixed-key"}
	ok1, err := actor.Raise(ctx, incremented{By: 5}, uid)
	require.NoError(t, err)
	assert.True(t, ok1)

	ok2, err := actor.Raise(ctx, incremented{By: 5}, uid)
	require.NoError(t, err)
	assert.False(t, ok2, "second raise with the same unique key must be rejected as a duplicate")
	assert.Equal(t, int64(5), actor.Snapshot().Payload.Value, "payload must not be double-applied")
}

func TestRecoverReplaysEventsAfterReactivation(t *testing.T) {
	ctx := context.Background()
	rig := newRig()

	first := rig.newActor("acct-3", noArchiveOpts())
	require.NoError(t, first.Activate(ctx))
	_, err := first.Raise(ctx, incremented{By: 3}, nil)
	require.NoError(t, err)
	_, err = first.Raise(ctx, incremented{By: 4}, nil)
	require.NoError(t, err)
	require.NoError(t, first.Deactivate(ctx))

	second := rig.newActor("acct-3", noArchiveOpts())
	require.NoError(t, second.Activate(ctx))
	assert.Equal(t, int64(7), second.Snapshot().Payload.Value)
	assert.Equal(t, int64(2), second.Version())
}

func TestRaiseRejectedOnceOver(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := rig.newActor("acct-4", noArchiveOpts())
	require.NoError(t, actor.Activate(ctx))
	_, err := actor.Raise(ctx, incremented{By: 1}, nil)
	require.NoError(t, err)

	require.NoError(t, actor.Over(ctx, core.OverNone))

	_, err = actor.Raise(ctx, incremented{By: 1}, nil)
	assert.ErrorIs(t, err, core.ErrStateIsOver)
}

func TestOverDeleteAllRemovesEventsAndSnapshot(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := rig.newActor("acct-5", noArchiveOpts())
	require.NoError(t, actor.Activate(ctx))
	_, err := actor.Raise(ctx, incremented{By: 2}, nil)
	require.NoError(t, err)

	require.NoError(t, actor.Over(ctx, core.OverDeleteAll))

	events, err := rig.eventLog.GetRange(ctx, "acct-5", 0, 1, 1000)
	require.NoError(t, err)
	assert.Empty(t, events)

	snap, err := rig.snapshotStore.Get(ctx, "acct-5")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestArchivePromotionAndEventClearing(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	opts := core.DefaultOptions()
	opts.Archive.MinCompletedVersionSpan = 2
	opts.Archive.MaxSnapshotArchiveRecords = 1
	opts.Archive.MinCompletedWallTime = 0

	actor := rig.newActor("acct-6", opts)
	require.NoError(t, actor.Activate(ctx))

	for i := 0; i < 4; i++ {
		_, err := actor.Raise(ctx, incremented{By: 1}, nil)
		require.NoError(t, err)
	}

	briefs, err := rig.archiveStore.GetBriefs(ctx, "acct-6")
	require.NoError(t, err)
	require.NotEmpty(t, briefs, "at least one brief should have been promoted")

	var cleared *core.ArchiveBrief[string]
	for _, b := range briefs {
		if b.EventIsCleared {
			cleared = b
		}
	}
	require.NotNil(t, cleared, "with MaxSnapshotArchiveRecords=1 the oldest brief should be cleared once observers (none registered) trivially pass")

	remaining, err := rig.eventLog.GetRange(ctx, "acct-6", 0, 1, cleared.EndVersion)
	require.NoError(t, err)
	assert.Empty(t, remaining, "cleared events must actually be pruned from the live log under the default Move policy")

	archived := rig.archiveStore.ArchivedEvents("acct-6")
	assert.NotEmpty(t, archived, "cleared events must be copied into archive-event storage before being pruned")
	assert.Equal(t, cleared.EndVersion, archived[len(archived)-1].BasicInfo.Version)
}

func TestRetroDatedEventWidensTimestampBounds(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := rig.newActor("acct-retro", noArchiveOpts())
	require.NoError(t, actor.Activate(ctx))

	_, err := actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e1", Timestamp: 100})
	require.NoError(t, err)
	_, err = actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e2", Timestamp: 50})
	require.NoError(t, err)

	snap := actor.Snapshot()
	assert.Equal(t, int64(50), snap.StartTimestamp)
	assert.Equal(t, int64(50), snap.LatestMinEventTimestamp)

	require.NoError(t, actor.Deactivate(ctx))
	stored, err := rig.snapshotStore.Get(ctx, "acct-retro")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(50), stored.StartTimestamp, "the widened bound must reach the snapshot store")
	assert.Equal(t, int64(50), stored.LatestMinEventTimestamp)
}

func TestRetroDatedEventFoldsCompletedBriefBackIntoPending(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	opts := core.DefaultOptions()
	opts.Archive.MinCompletedVersionSpan = 2
	opts.Archive.MaxSnapshotArchiveRecords = 100 // keep clearing out of the picture
	opts.Archive.MinCompletedWallTime = 0

	actor := rig.newActor("acct-fold", opts)
	require.NoError(t, actor.Activate(ctx))

	_, err := actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e1", Timestamp: 100})
	require.NoError(t, err)
	_, err = actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e2", Timestamp: 200})
	require.NoError(t, err)

	briefs, err := rig.archiveStore.GetBriefs(ctx, "acct-fold")
	require.NoError(t, err)
	require.Len(t, briefs, 1, "two events crossing MinCompletedVersionSpan should have promoted one brief")

	// An event dated inside the promoted brief's range unwinds that brief
	// into the pending archive, which then re-promotes covering all three.
	_, err = actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e3", Timestamp: 150})
	require.NoError(t, err)

	briefs, err = rig.archiveStore.GetBriefs(ctx, "acct-fold")
	require.NoError(t, err)
	require.Len(t, briefs, 1)
	assert.Equal(t, int64(1), briefs[0].StartVersion)
	assert.Equal(t, int64(3), briefs[0].EndVersion)
	assert.Equal(t, int64(100), briefs[0].StartTimestamp)
	assert.Equal(t, int64(200), briefs[0].EndTimestamp)
}

func TestRaiseIntoClearedWindowRejected(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	opts := core.DefaultOptions()
	opts.Archive.MinCompletedVersionSpan = 2
	opts.Archive.MaxSnapshotArchiveRecords = 1
	opts.Archive.MinCompletedWallTime = 0

	actor := rig.newActor("acct-cleared", opts)
	require.NoError(t, actor.Activate(ctx))

	_, err := actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e1", Timestamp: 1000})
	require.NoError(t, err)
	_, err = actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e2", Timestamp: 2000})
	require.NoError(t, err)

	briefs, err := rig.archiveStore.GetBriefs(ctx, "acct-cleared")
	require.NoError(t, err)
	require.Len(t, briefs, 1)
	require.True(t, briefs[0].EventIsCleared, "precondition: the promoted brief's events were cleared")

	versionBefore := actor.Version()
	_, err = actor.Raise(ctx, incremented{By: 1}, &core.EventUID{Key: "e3", Timestamp: 500})
	assert.ErrorIs(t, err, core.ErrEventIsCleared, "retro-dating into pruned history is forbidden")
	assert.Equal(t, versionBefore, actor.Version(), "a rejected raise must leave state untouched")
}

func TestRecoverSurvivesCrashBeforeFirstSnapshotFlush(t *testing.T) {
	ctx := context.Background()
	rig := newRig()

	first := rig.newActor("acct-crash", noArchiveOpts())
	require.NoError(t, first.Activate(ctx))
	_, err := first.Raise(ctx, incremented{By: 2}, nil)
	require.NoError(t, err)
	_, err = first.Raise(ctx, incremented{By: 3}, nil)
	require.NoError(t, err)
	// No Deactivate: SnapshotVersionInterval (20) hasn't been crossed, so
	// nothing was ever flushed to the snapshot store, simulating a crash.

	snap, err := rig.snapshotStore.Get(ctx, "acct-crash")
	require.NoError(t, err)
	require.Nil(t, snap, "precondition: no snapshot was persisted before the simulated crash")

	second := rig.newActor("acct-crash", noArchiveOpts())
	require.NoError(t, second.Activate(ctx))
	assert.Equal(t, int64(5), second.Snapshot().Payload.Value, "events committed before the crash must still be replayed")
	assert.Equal(t, int64(2), second.Version())
}

func TestActivateWithNoApplierConfiguredFails(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := core.NewActor[string, counterPayload]("Counter", "acct-no-applier", noArchiveOpts(), core.Deps[string, counterPayload]{
		Serializer:    serialize.JSON{},
		EventLog:      rig.eventLog,
		SnapshotStore: rig.snapshotStore,
		ArchiveStore:  rig.archiveStore,
		Observers:     rig.observers,
	})

	err := actor.Activate(ctx)
	assert.ErrorIs(t, err, core.ErrUnfindSnapshotHandler)
}

func TestResetStartsACleanSlate(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := rig.newActor("acct-7", noArchiveOpts())
	require.NoError(t, actor.Activate(ctx))
	_, err := actor.Raise(ctx, incremented{By: 9}, nil)
	require.NoError(t, err)

	require.NoError(t, actor.Reset(ctx))

	assert.Equal(t, int64(0), actor.Snapshot().Payload.Value)
	assert.Equal(t, int64(0), actor.Version())
}

func TestResetToRebindsTheActorUnderANewStateId(t *testing.T) {
	ctx := context.Background()
	rig := newRig()
	actor := rig.newActor("acct-old", noArchiveOpts())
	require.NoError(t, actor.Activate(ctx))
	_, err := actor.Raise(ctx, incremented{By: 9}, nil)
	require.NoError(t, err)

	require.NoError(t, actor.ResetTo(ctx, "acct-new"))

	assert.Equal(t, "acct-new", actor.StateId)
	assert.Equal(t, int64(0), actor.Version())

	// The old identity's history is gone, and new events commit under the
	// new id.
	oldSnap, err := rig.snapshotStore.Get(ctx, "acct-old")
	require.NoError(t, err)
	assert.Nil(t, oldSnap)

	ok, err := actor.Raise(ctx, incremented{By: 2}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	events, err := rig.eventLog.GetRange(ctx, "acct-new", 0, 1, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "acct-new", events[0].StateId)
}
