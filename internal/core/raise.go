package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Raise authors and commits a new event. Storage/serialization failures
// during the attempt trigger a local Recover + forced snapshot flush before
// the original error is re-thrown. Business rejections (StateIsOver, EventIsCleared,
// StateInsecurity) surface directly, with no Recover or forced flush. An
// EventIsCleared rejection can come after onRaiseStart has already written to
// the snapshot store (IsLatest, timestamp bounds) or deleted unwound briefs.
func (a *Actor[ID, P]) Raise(ctx context.Context, event DomainEvent, uid *EventUID) (bool, error) {
	ok, err := a.raiseOnce(ctx, event, uid)
	if err == nil {
		return ok, nil
	}
	if errors.Is(err, ErrStateIsOver) || errors.Is(err, ErrEventIsCleared) || errors.Is(err, ErrStateInsecurity) {
		return false, err
	}

	log.Printf("%scritical: raise failed, rebuilding from storage: %v", a.logPrefix("raise"), err)
	if rerr := a.Recover(ctx); rerr != nil {
		return false, fmt.Errorf("recover after failed raise: %w (original error: %v)", rerr, err)
	}
	if serr := a.saveSnapshot(ctx, true, true); serr != nil {
		return false, fmt.Errorf("force-save after recover: %w (original error: %v)", serr, err)
	}
	return false, err
}

func (a *Actor[ID, P]) raiseOnce(ctx context.Context, event DomainEvent, uid *EventUID) (bool, error) {
	if a.snapshot.IsOver {
		return false, ErrStateIsOver
	}

	version := a.snapshot.Version + 1
	timestamp := nowMillis()
	if uid != nil && uid.Timestamp != 0 {
		timestamp = uid.Timestamp
	}

	typeCode, err := a.resolveTypeCode(event)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	payload, err := a.serializer.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("%w: marshal event: %v", ErrSerialization, err)
	}

	uniqueKey := ""
	if uid != nil && uid.Key != "" {
		uniqueKey = uid.Key
	} else {
		uniqueKey = deriveUniqueKey(a.StateId, typeCode, payload, version)
	}

	fe := FullyEvent[ID]{
		StateId:      a.StateId,
		BasicInfo:    BasicInfo{Version: version, Timestamp: timestamp},
		TypeCode:     typeCode,
		PayloadBytes: payload,
		UniqueKey:    uniqueKey,
	}

	if err := a.onRaiseStart(ctx, fe); err != nil {
		return false, err
	}

	if err := a.snapshot.IncrementDoingVersion(); err != nil {
		return false, err
	}

	appended, err := a.eventLog.Append(ctx, fe)
	if err != nil {
		return false, fmt.Errorf("%w: event_log.append: %v", ErrStorage, err)
	}
	if !appended {
		a.snapshot.DecrementDoingVersion()
		a.onRaiseFailed(ctx)
		if a.metrics != nil {
			a.metrics.IncRaiseFailed(a.StateKind)
		}
		return false, nil
	}

	if err := a.apply(&a.snapshot.Payload, fe); err != nil {
		return false, fmt.Errorf("%w: apply: %v", ErrSerialization, err)
	}
	if err := a.snapshot.UpdateVersion(fe.BasicInfo.Version); err != nil {
		return false, err
	}

	a.onRaised(ctx, fe)

	if err := a.saveSnapshot(ctx, false, true); err != nil {
		return false, err
	}

	a.publishToBus(ctx, fe)

	if a.metrics != nil {
		a.metrics.IncRaise(a.StateKind)
	}
	return true, nil
}

// onRaiseStart runs the pre-append guards: flipping IsLatest off, the
// retro-event timestamp checks, and the brief unwinding. The EventIsCleared
// guard against ClearedArchive runs strictly before the brief walk so a
// cleared brief is never a candidate for deletion.
func (a *Actor[ID, P]) onRaiseStart(ctx context.Context, fe FullyEvent[ID]) error {
	if a.snapshot.Version > 0 && a.snapshot.IsLatest {
		if err := a.snapshotStore.UpdateIsLatest(ctx, a.StateId, false); err != nil {
			return fmt.Errorf("%w: update_is_latest: %v", ErrStorage, err)
		}
		a.snapshot.IsLatest = false
	}

	if a.clearedArchive != nil && fe.BasicInfo.Timestamp < a.clearedArchive.StartTimestamp {
		return ErrEventIsCleared
	}

	startMoved, minMoved := a.snapshot.WitnessTimestamp(fe.BasicInfo.Timestamp)
	if minMoved {
		if err := a.snapshotStore.UpdateLatestMinEventTimestamp(ctx, a.StateId, a.snapshot.LatestMinEventTimestamp); err != nil {
			return fmt.Errorf("%w: update_latest_min_event_timestamp: %v", ErrStorage, err)
		}
	}
	if startMoved {
		if err := a.snapshotStore.UpdateStartTimestamp(ctx, a.StateId, a.snapshot.StartTimestamp); err != nil {
			return fmt.Errorf("%w: update_start_timestamp: %v", ErrStorage, err)
		}
	}

	if a.opts.Archive.On && a.lastArchive != nil && fe.BasicInfo.Timestamp < a.lastArchive.EndTimestamp {
		if err := a.foldBackBriefs(ctx, fe.BasicInfo.Timestamp); err != nil {
			return err
		}
	}

	return nil
}

// foldBackBriefs walks the brief list from the highest index down,
// unwinding any non-cleared brief whose EndTimestamp exceeds until into
// NewArchive, repairing archives around a retro-dated event instead of
// rejecting it outright.
func (a *Actor[ID, P]) foldBackBriefs(ctx context.Context, until int64) error {
	for len(a.briefs) > 0 {
		last := a.briefs[len(a.briefs)-1]
		if last.EndTimestamp <= until {
			break
		}
		if last.EventIsCleared {
			return ErrEventIsCleared
		}

		if err := a.archiveStore.Delete(ctx, a.StateId, last.Id); err != nil {
			return fmt.Errorf("%w: archive_store.delete: %v", ErrStorage, err)
		}
		a.briefs = a.briefs[:len(a.briefs)-1]

		if a.newArchive == nil {
			cp := *last
			a.newArchive = &cp
		} else {
			a.newArchive = combineArchive(a.newArchive, last)
		}
	}

	if len(a.briefs) > 0 {
		a.lastArchive = a.briefs[len(a.briefs)-1]
	} else {
		a.lastArchive = nil
	}
	return nil
}

// onRaiseFailed runs after a duplicate append is detected: the event never
// committed, but a previously accumulated NewArchive may already qualify
// for promotion, so we give the archive engine a chance to flush it.
func (a *Actor[ID, P]) onRaiseFailed(ctx context.Context) {
	if !a.opts.Archive.On || a.newArchive == nil {
		return
	}
	if err := a.archiveOnce(ctx, false); err != nil {
		log.Printf("%sopportunistic archive after failed raise: %v", a.logPrefix("raise"), err)
	}
}

// onRaised is the default post-commit hook: extend (or start) NewArchive
// with the just-committed event, then opportunistically promote it.
func (a *Actor[ID, P]) onRaised(ctx context.Context, fe FullyEvent[ID]) {
	if !a.opts.Archive.On {
		return
	}
	if err := a.eventArchive(ctx, fe); err != nil {
		log.Printf("%sevent_archive: %v", a.logPrefix("raise"), err)
	}
}

func (a *Actor[ID, P]) resolveTypeCode(event DomainEvent) (string, error) {
	if event != nil {
		if code := event.TypeCode(); code != "" {
			return code, nil
		}
	}
	if a.typeCodeOf != nil {
		return a.typeCodeOf(event)
	}
	if a.typeFinder != nil {
		return a.typeFinder.TypeCodeFor(event)
	}
	return "", errors.New("no type code resolver configured")
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
