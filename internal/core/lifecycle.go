package core

import (
	"context"
	"fmt"
	"log"
)

// publishToBus fans a committed event out to downstream consumers, trying
// the preferred route first and falling back to the other on failure.
// Outer failures are logged, never propagated — the event is already
// durable in the log, so observers will catch up through other paths.
func (a *Actor[ID, P]) publishToBus(ctx context.Context, fe FullyEvent[ID]) {
	primary, fallback := a.busFirst, a.fanOutFirst
	if !a.opts.PriorityAsyncEventBus {
		primary, fallback = a.fanOutFirst, a.busFirst
	}

	if err := primary(ctx, fe); err != nil {
		log.Printf("%sprimary publish failed, falling back: %v", a.logPrefix("bus"), err)
		if a.metrics != nil {
			a.metrics.IncBusFallback(a.StateKind)
		}
		if ferr := fallback(ctx, fe); ferr != nil {
			log.Printf("%sfallback publish also failed: %v", a.logPrefix("bus"), ferr)
		}
	}
}

func (a *Actor[ID, P]) busFirst(ctx context.Context, fe FullyEvent[ID]) error {
	if a.bus == nil {
		return fmt.Errorf("no bus configured")
	}
	return a.bus.Publish(ctx, a.StateId, fe)
}

func (a *Actor[ID, P]) fanOutFirst(ctx context.Context, fe FullyEvent[ID]) error {
	if a.observers == nil {
		return fmt.Errorf("no observer registry configured")
	}
	return a.observers.HandleEvent(ctx, a.StateId, fe)
}

// Publish sends a bare fire-and-forget message to the bus. It never
// touches snapshot/version state — this is the out-of-band channel for
// messages that aren't committed domain events.
func (a *Actor[ID, P]) Publish(ctx context.Context, msg any) error {
	payload, err := a.serializer.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshal bare message: %v", ErrSerialization, err)
	}
	typeCode := ""
	if de, ok := msg.(DomainEvent); ok {
		typeCode = de.TypeCode()
	} else if a.typeFinder != nil {
		typeCode, err = a.typeFinder.TypeCodeFor(msg)
		if err != nil {
			return fmt.Errorf("%w: resolve type code: %v", ErrSerialization, err)
		}
	}
	if a.bus == nil {
		return fmt.Errorf("no bus configured")
	}
	return a.bus.PublishBare(ctx, a.StateId, typeCode, payload)
}

// Activate wires a freshly constructed Actor up from storage: loads the
// archive brief list (if archives are enabled), repairs a partial last
// brief left by a crash mid-promotion, recovers the snapshot, reconstructs
// any pending archive the recovered events imply, and optionally blocks
// until every observer has caught up.
func (a *Actor[ID, P]) Activate(ctx context.Context) error {
	if a.apply == nil {
		return ErrUnfindSnapshotHandler
	}

	if a.opts.Archive.On {
		briefs, err := a.archiveStore.GetBriefs(ctx, a.StateId)
		if err != nil {
			return fmt.Errorf("%w: archive_store.get_briefs: %v", ErrStorage, err)
		}
		a.briefs = briefs
		if len(briefs) > 0 {
			a.lastArchive = briefs[len(briefs)-1]
			for _, b := range briefs {
				if b.EventIsCleared {
					a.clearedArchive = b
				}
			}
		}

		if a.lastArchive != nil && !a.lastArchive.EventIsCleared &&
			!a.lastArchive.IsCompleted(a.opts.Archive, nil) {
			if err := a.archiveStore.Delete(ctx, a.StateId, a.lastArchive.Id); err != nil {
				return fmt.Errorf("%w: archive_store.delete partial brief: %v", ErrStorage, err)
			}
			a.briefs = a.briefs[:len(a.briefs)-1]
			a.newArchive = a.lastArchive
			if len(a.briefs) > 0 {
				a.lastArchive = a.briefs[len(a.briefs)-1]
			} else {
				a.lastArchive = nil
			}
		}
	}

	if err := a.Recover(ctx); err != nil {
		return err
	}

	if a.opts.Archive.On && a.snapshot.Version > 0 {
		lastEnd := int64(0)
		if a.lastArchive != nil && a.lastArchive.EndVersion > lastEnd {
			lastEnd = a.lastArchive.EndVersion
		}
		if a.newArchive != nil && a.newArchive.EndVersion > lastEnd {
			lastEnd = a.newArchive.EndVersion
		}
		if a.snapshot.Version > lastEnd {
			if err := a.rebuildPendingArchive(ctx, lastEnd); err != nil {
				return err
			}
		}
	}

	if a.opts.SyncAllObserversOnActivate {
		ok, err := a.observers.SyncAll(ctx, a.StateId, a.snapshot.Version)
		if err != nil {
			return fmt.Errorf("%w: observer sync: %v", ErrStorage, err)
		}
		if !ok {
			return ErrSyncAllObserversFailed
		}
	}

	log.Printf("%sactivated at version %d", a.logPrefix("lifecycle"), a.snapshot.Version)
	return nil
}

// rebuildPendingArchive folds events committed after the last known
// archive boundary through eventArchive, reconstructing NewArchive for an
// activation that resumes after a crash between a raise and its archive
// promotion.
func (a *Actor[ID, P]) rebuildPendingArchive(ctx context.Context, fromVersion int64) error {
	version := fromVersion
	for version < a.snapshot.Version {
		to := version + a.opts.NumberOfEventsPerRead
		events, err := a.eventLog.GetRange(ctx, a.StateId, 0, version+1, to)
		if err != nil {
			return fmt.Errorf("%w: event_log.get_range (archive rebuild): %v", ErrStorage, err)
		}
		if len(events) == 0 {
			break
		}
		for _, ev := range events {
			if err := a.eventArchive(ctx, ev); err != nil {
				return err
			}
			version = ev.BasicInfo.Version
		}
		if int64(len(events)) < a.opts.NumberOfEventsPerRead {
			break
		}
	}
	return nil
}

// Deactivate force-flushes the snapshot if dirty and force-archives a
// pending NewArchive once it's grown past MinVersionIntervalAtDeactivate.
// The deactivation log line fires only when deactivation did meaningful
// work (a dirty snapshot was flushed), not on every teardown.
func (a *Actor[ID, P]) Deactivate(ctx context.Context) error {
	didWork := false

	if a.snapshot.Version > a.snapshotEventVersion {
		if err := a.saveSnapshot(ctx, true, true); err != nil {
			return err
		}
		didWork = true
	}

	if didWork {
		log.Printf("%sdeactivated at version %d", a.logPrefix("lifecycle"), a.snapshot.Version)
	}

	if a.opts.Archive.On && a.newArchive != nil {
		span := a.newArchive.EndVersion - a.newArchive.StartVersion + 1
		if span >= a.opts.Archive.MinVersionIntervalAtDeactivate {
			if err := a.archiveOnce(ctx, true); err != nil {
				return err
			}
		}
	}

	return nil
}

// OverType selects what happens to an actor's durable history when it
// transitions to terminal.
type OverType int

const (
	OverNone OverType = iota
	OverArchivingEvent
	OverDeleteEvent
	OverDeleteAll
)

func (o OverType) String() string {
	switch o {
	case OverArchivingEvent:
		return "ArchivingEvent"
	case OverDeleteEvent:
		return "DeleteEvent"
	case OverDeleteAll:
		return "DeleteAll"
	default:
		return "None"
	}
}

// Over transitions the actor to terminal. Once IsOver, Raise always fails
// with ErrStateIsOver.
func (a *Actor[ID, P]) Over(ctx context.Context, overType OverType) error {
	if a.snapshot.IsOver {
		return ErrStateIsOver
	}
	if err := a.snapshot.AssertCommitted(); err != nil {
		return err
	}

	if overType != OverNone {
		versions, err := a.observers.Versions(ctx, a.StateId)
		if err != nil {
			return fmt.Errorf("%w: observer versions: %v", ErrStorage, err)
		}
		for _, v := range versions {
			if v < a.snapshot.Version {
				return ErrObserverNotCompleted
			}
		}
	}

	a.snapshot.IsOver = true
	a.snapshot.IsLatest = true
	if err := a.saveSnapshot(ctx, true, true); err != nil {
		return err
	}
	if err := a.snapshotStore.Over(ctx, a.StateId, true); err != nil {
		return fmt.Errorf("%w: snapshot_store.over: %v", ErrStorage, err)
	}

	switch overType {
	case OverArchivingEvent:
		if err := a.archiveStore.DeleteAll(ctx, a.StateId); err != nil {
			return fmt.Errorf("%w: archive_store.delete_all: %v", ErrStorage, err)
		}
		if err := a.copyEventRangeToArchive(ctx, 1, a.snapshot.Version, 0); err != nil {
			return err
		}
	case OverDeleteEvent:
		if err := a.archiveStore.DeleteAll(ctx, a.StateId); err != nil {
			return fmt.Errorf("%w: archive_store.delete_all: %v", ErrStorage, err)
		}
		if err := a.eventLog.DeletePrevious(ctx, a.StateId, a.snapshot.Version, 0); err != nil {
			return fmt.Errorf("%w: event_log.delete_previous: %v", ErrStorage, err)
		}
	case OverDeleteAll:
		if err := a.archiveStore.DeleteAll(ctx, a.StateId); err != nil {
			return fmt.Errorf("%w: archive_store.delete_all: %v", ErrStorage, err)
		}
		if err := a.eventLog.DeletePrevious(ctx, a.StateId, a.snapshot.Version, 0); err != nil {
			return fmt.Errorf("%w: event_log.delete_previous: %v", ErrStorage, err)
		}
		if err := a.snapshotStore.Delete(ctx, a.StateId); err != nil {
			return fmt.Errorf("%w: snapshot_store.delete: %v", ErrStorage, err)
		}
		a.existsInStore = false
	case OverNone:
		if a.opts.Archive.On {
			if err := a.archiveStore.Over(ctx, a.StateId, true); err != nil {
				return fmt.Errorf("%w: archive_store.over: %v", ErrStorage, err)
			}
		}
	}

	log.Printf("%sover (%v) at version %d", a.logPrefix("lifecycle"), overType, a.snapshot.Version)
	return nil
}

// Reset tears the actor down (Over(DeleteAll)), recovers a clean slate
// under the same StateId, and asks observers to re-key their cursors.
func (a *Actor[ID, P]) Reset(ctx context.Context) error {
	return a.ResetTo(ctx, a.StateId)
}

// ResetTo is Reset under a new identity: the old StateId's history is torn
// down, a fresh snapshot is recovered under newId, and observers are told
// both ids so registries can re-key their cursors.
func (a *Actor[ID, P]) ResetTo(ctx context.Context, newId ID) error {
	oldId := a.StateId
	if err := a.Over(ctx, OverDeleteAll); err != nil {
		return err
	}
	a.StateId = newId
	a.snapshot = nil
	a.briefs = nil
	a.lastArchive = nil
	a.clearedArchive = nil
	a.newArchive = nil
	a.snapshotEventVersion = 0

	if err := a.Recover(ctx); err != nil {
		return err
	}

	if err := a.observers.NotifyReset(ctx, oldId, newId); err != nil {
		return fmt.Errorf("%w: observer notify reset: %v", ErrStorage, err)
	}
	return nil
}
