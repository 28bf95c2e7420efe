package core

import (
	"context"
	"fmt"
	"log"
)

// Recover rebuilds the in-memory Snapshot from storage: snapshot store,
// falling back to the last archive body, falling back to a fresh snapshot;
// then replays events in bounded pages until IsLatest. Safe to call after a
// crash mid-replay because replay is deterministic and version-gated.
func (a *Actor[ID, P]) Recover(ctx context.Context) error {
	snap, err := a.snapshotStore.Get(ctx, a.StateId)
	if err != nil {
		return fmt.Errorf("%w: snapshot_store.get: %v", ErrStorage, err)
	}
	a.existsInStore = snap != nil

	if snap == nil && a.opts.Archive.On && a.lastArchive != nil {
		snap, err = a.archiveStore.GetByID(ctx, a.StateId, a.lastArchive.Id)
		if err != nil {
			return fmt.Errorf("%w: archive_store.get_by_id: %v", ErrStorage, err)
		}
	}

	if snap == nil {
		snap = &Snapshot[ID, P]{
			StateId: a.StateId,
			Payload: a.createSnap(),
		}
	}

	a.snapshot = snap
	a.snapshotEventVersion = snap.Version

	for !a.snapshot.IsLatest {
		from := a.snapshot.Version + 1
		to := a.snapshot.Version + a.opts.NumberOfEventsPerRead
		events, err := a.eventLog.GetRange(ctx, a.StateId, a.snapshot.LatestMinEventTimestamp, from, to)
		if err != nil {
			return fmt.Errorf("%w: event_log.get_range: %v", ErrStorage, err)
		}

		for _, ev := range events {
			if err := a.snapshot.IncrementDoingVersion(); err != nil {
				return err
			}
			if err := a.apply(&a.snapshot.Payload, ev); err != nil {
				return fmt.Errorf("%w: apply during recovery: %v", ErrSerialization, err)
			}
			if err := a.snapshot.UpdateVersion(ev.BasicInfo.Version); err != nil {
				return err
			}
		}

		if int64(len(events)) < a.opts.NumberOfEventsPerRead {
			a.snapshot.IsLatest = true
			break
		}
	}

	if a.snapshot.Version-a.snapshotEventVersion >= a.opts.MinSnapshotVersionInterval {
		if err := a.saveSnapshot(ctx, true, true); err != nil {
			return err
		}
	}

	if a.metrics != nil {
		a.metrics.IncRecovery(a.StateKind)
	}
	log.Printf("%srecovered at version %d", a.logPrefix("recovery"), a.snapshot.Version)
	return nil
}
