package core

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// eventArchive widens (or starts) NewArchive with a just-committed event,
// then checks whether it's ready for promotion.
func (a *Actor[ID, P]) eventArchive(ctx context.Context, fe FullyEvent[ID]) error {
	if a.newArchive == nil {
		index := 0
		if a.lastArchive != nil {
			index = a.lastArchive.Index + 1
		}
		a.newArchive = &ArchiveBrief[ID]{
			StateId:        a.StateId,
			Id:             uuid.New(),
			Index:          index,
			StartVersion:   fe.BasicInfo.Version,
			EndVersion:     fe.BasicInfo.Version,
			StartTimestamp: fe.BasicInfo.Timestamp,
			EndTimestamp:   fe.BasicInfo.Timestamp,
		}
	} else {
		a.newArchive.widen(fe.BasicInfo.Version, fe.BasicInfo.Timestamp)
	}
	return a.archiveOnce(ctx, false)
}

// archiveOnce is `archive(force)`: on force or policy-completion, promotes
// NewArchive into the brief list and runs the event-clearing pass.
func (a *Actor[ID, P]) archiveOnce(ctx context.Context, force bool) error {
	if err := a.snapshot.AssertCommitted(); err != nil {
		return err
	}
	if a.newArchive == nil {
		return nil
	}
	if !force && !a.newArchive.IsCompleted(a.opts.Archive, a.lastArchive) {
		return nil
	}

	promoted := a.newArchive
	if err := a.archiveStore.Insert(ctx, promoted, a.snapshot); err != nil {
		return fmt.Errorf("%w: archive_store.insert: %v", ErrStorage, err)
	}
	a.briefs = append(a.briefs, promoted)
	a.lastArchive = promoted
	a.newArchive = nil

	if a.metrics != nil {
		a.metrics.IncArchivePromotion(a.StateKind)
	}
	log.Printf("%spromoted archive index=%d versions=[%d,%d]", a.logPrefix("archive"), promoted.Index, promoted.StartVersion, promoted.EndVersion)

	return a.onArchiveCompleted(ctx)
}

// onArchiveCompleted is the event-cleaning pass: once enough non-cleared
// briefs have piled up, and every observer has caught up past the oldest
// one's EndVersion, that brief's events are pruned (deleted or moved,
// per EventArchiveType) and it becomes the new ClearedArchive cursor.
func (a *Actor[ID, P]) onArchiveCompleted(ctx context.Context) error {
	var noncleared []*ArchiveBrief[ID]
	for _, b := range a.briefs {
		if !b.EventIsCleared {
			noncleared = append(noncleared, b)
		}
	}
	if len(noncleared) < a.opts.Archive.MaxSnapshotArchiveRecords {
		return nil
	}
	min := noncleared[0]

	versions, err := a.observers.Versions(ctx, a.StateId)
	if err != nil {
		return fmt.Errorf("%w: observer versions: %v", ErrStorage, err)
	}
	for _, v := range versions {
		if v < min.EndVersion {
			return nil
		}
	}

	if err := a.archiveStore.EventIsClear(ctx, a.StateId, min.Id); err != nil {
		return fmt.Errorf("%w: archive_store.event_is_clear: %v", ErrStorage, err)
	}
	min.EventIsCleared = true

	if a.snapshotEventVersion < min.EndVersion {
		if err := a.saveSnapshot(ctx, true, a.snapshot.IsLatest); err != nil {
			return err
		}
	}

	switch a.opts.Archive.EventArchiveType {
	case EventArchiveDelete:
		if err := a.eventLog.DeletePrevious(ctx, a.StateId, min.EndVersion, min.StartTimestamp); err != nil {
			return fmt.Errorf("%w: event_log.delete_previous: %v", ErrStorage, err)
		}
	default: // Move
		if err := a.moveEventsToArchive(ctx, min); err != nil {
			return err
		}
		if err := a.eventLog.DeletePrevious(ctx, a.StateId, min.EndVersion, min.StartTimestamp); err != nil {
			return fmt.Errorf("%w: event_log.delete_previous (post-move): %v", ErrStorage, err)
		}
	}

	a.clearedArchive = min
	a.pruneOlderClearedBriefs(ctx)

	if a.metrics != nil {
		a.metrics.IncArchiveCleared(a.StateKind)
	}
	log.Printf("%scleared events through version %d (brief index=%d)", a.logPrefix("archive"), min.EndVersion, min.Index)
	return nil
}

// moveEventsToArchive pages through the live log from the last cleared
// watermark up to min.EndVersion and copies each page into archive-event
// storage before the caller prunes the live log.
func (a *Actor[ID, P]) moveEventsToArchive(ctx context.Context, min *ArchiveBrief[ID]) error {
	from := int64(1)
	if a.clearedArchive != nil {
		from = a.clearedArchive.EndVersion + 1
	}
	return a.copyEventRangeToArchive(ctx, from, min.EndVersion, min.StartTimestamp)
}

// copyEventRangeToArchive pages through the live log in windows of
// NumberOfEventsPerRead and copies each page into archive-event storage,
// the same paging shape rebuildPendingArchive uses to read events. The copy
// always starts at from; the watermark archive_store.EventArchive records is
// not read back, so a copy cut short by a crash is not resumed.
func (a *Actor[ID, P]) copyEventRangeToArchive(ctx context.Context, from, to, fromTimestamp int64) error {
	for from <= to {
		pageTo := from + a.opts.NumberOfEventsPerRead - 1
		if pageTo > to {
			pageTo = to
		}
		events, err := a.eventLog.GetRange(ctx, a.StateId, fromTimestamp, from, pageTo)
		if err != nil {
			return fmt.Errorf("%w: event_log.get_range (archive move): %v", ErrStorage, err)
		}
		if len(events) == 0 {
			break
		}
		if err := a.archiveStore.EventArchive(ctx, a.StateId, events, pageTo, fromTimestamp); err != nil {
			return fmt.Errorf("%w: archive_store.event_archive: %v", ErrStorage, err)
		}
		from = pageTo + 1
	}
	return nil
}

// pruneOlderClearedBriefs keeps only the newest cleared brief (the current
// ClearedArchive cursor); briefs cleared before it are now redundant and
// are deleted from the archive store and the in-memory list.
func (a *Actor[ID, P]) pruneOlderClearedBriefs(ctx context.Context) {
	kept := a.briefs[:0]
	for _, b := range a.briefs {
		if b.EventIsCleared && b.Index < a.clearedArchive.Index {
			if err := a.archiveStore.Delete(ctx, a.StateId, b.Id); err != nil {
				log.Printf("%sdelete stale cleared brief index=%d: %v", a.logPrefix("archive"), b.Index, err)
			}
			continue
		}
		kept = append(kept, b)
	}
	a.briefs = kept
}
