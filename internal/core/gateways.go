package core

import (
	"context"

	"github.com/google/uuid"
)

// EventLogGateway is the durable event log. Implementations must
// guarantee atomicity of Append keyed by both (StateId, Version) and
// UniqueKey, and must be safe for concurrent use across actors.
type EventLogGateway[ID StateID] interface {
	// Append persists event atomically. It returns false (not an error) on
	// a duplicate UniqueKey or (StateId, Version) — the idempotency path —
	// and true on first successful commit.
	Append(ctx context.Context, event FullyEvent[ID]) (bool, error)

	// GetRange returns events with Version in [fromVersionInclusive,
	// toVersionInclusive], ascending. fromTimestamp is a read hint only.
	GetRange(ctx context.Context, stateId ID, fromTimestamp int64, fromVersionInclusive, toVersionInclusive int64) ([]FullyEvent[ID], error)

	// DeletePrevious removes events with Version <= upToVersionInclusive,
	// scanning from fromTimestamp onward.
	DeletePrevious(ctx context.Context, stateId ID, upToVersionInclusive int64, fromTimestamp int64) error
}

// SnapshotStoreGateway persists the Snapshot.
type SnapshotStoreGateway[ID StateID, P any] interface {
	Get(ctx context.Context, stateId ID) (*Snapshot[ID, P], error)
	Insert(ctx context.Context, snap *Snapshot[ID, P]) error
	Update(ctx context.Context, snap *Snapshot[ID, P]) error
	UpdateIsLatest(ctx context.Context, stateId ID, isLatest bool) error
	UpdateLatestMinEventTimestamp(ctx context.Context, stateId ID, ts int64) error
	UpdateStartTimestamp(ctx context.Context, stateId ID, ts int64) error
	Over(ctx context.Context, stateId ID, over bool) error
	Delete(ctx context.Context, stateId ID) error
}

// ArchiveStoreGateway persists archive briefs and bodies.
type ArchiveStoreGateway[ID StateID, P any] interface {
	GetBriefs(ctx context.Context, stateId ID) ([]*ArchiveBrief[ID], error)
	GetByID(ctx context.Context, stateId ID, briefId uuid.UUID) (*Snapshot[ID, P], error)
	Insert(ctx context.Context, brief *ArchiveBrief[ID], snap *Snapshot[ID, P]) error
	Delete(ctx context.Context, stateId ID, briefId uuid.UUID) error
	DeleteAll(ctx context.Context, stateId ID) error
	EventIsClear(ctx context.Context, stateId ID, briefId uuid.UUID) error
	// EventArchive bulk-copies events into archive-event storage (the
	// "Move" EventArchiveType policy). The caller has already read events
	// from the live log; endVersion/startTimestamp describe the copied range,
	// and an implementation may persist endVersion as a watermark. The core
	// never reads that watermark back.
	EventArchive(ctx context.Context, stateId ID, events []FullyEvent[ID], endVersion int64, startTimestamp int64) error
	Over(ctx context.Context, stateId ID, over bool) error
}

// ObserverRegistry is the downstream-progress collaborator consulted for
// Over, archive clearing, and activation sync. Each observer tracks a
// committed version per aggregate.
type ObserverRegistry[ID StateID] interface {
	// Versions returns, per registered observer name, the version it has
	// committed for stateId.
	Versions(ctx context.Context, stateId ID) (map[string]int64, error)

	// SyncAll reports whether every observer is at targetVersion or later,
	// returning false if any is not or reports failure. Whether a call waits
	// for or drives catch-up depends on the implementation.
	SyncAll(ctx context.Context, stateId ID, targetVersion int64) (bool, error)

	// HandleEvent is the synchronous fan-out path used as a bus fallback.
	HandleEvent(ctx context.Context, stateId ID, event FullyEvent[ID]) error

	// NotifyReset informs observers that stateId's history was replaced,
	// optionally under a new identity (Reset()).
	NotifyReset(ctx context.Context, oldID, newID ID) error
}

// EventBusProducer publishes encoded events to the message bus.
type EventBusProducer[ID StateID] interface {
	Publish(ctx context.Context, stateId ID, event FullyEvent[ID]) error
	PublishBare(ctx context.Context, stateId ID, typeCode string, payload []byte) error
}

// Serializer encodes domain event/payload values to bytes. Decoding is left
// to the Applier, which owns the concrete event union.
type Serializer interface {
	Marshal(v any) ([]byte, error)
}

// TypeFinder resolves a wire TypeCode for values that don't implement
// DomainEvent directly — used by the bare Publish path.
type TypeFinder interface {
	TypeCodeFor(v any) (string, error)
}

// MetricMonitor is the read-only metric sink the actor reports into.
type MetricMonitor interface {
	IncRaise(stateKind string)
	IncRaiseFailed(stateKind string)
	IncRecovery(stateKind string)
	IncArchivePromotion(stateKind string)
	IncArchiveCleared(stateKind string)
	IncBusFallback(stateKind string)
}
