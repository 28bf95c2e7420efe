package core

import (
	"context"
	"fmt"
)

// saveSnapshot persists the current snapshot iff force is set or
// Version-SnapshotEventVersion has crossed SnapshotVersionInterval. isLatest
// is stamped onto the persisted record. Recovery, deactivation, Over and the
// post-raise save all pass true, since the saved snapshot covers every
// committed event; the next raise clears the stored flag in onRaiseStart.
func (a *Actor[ID, P]) saveSnapshot(ctx context.Context, force bool, isLatest bool) error {
	if !force && a.snapshot.Version-a.snapshotEventVersion < a.opts.SnapshotVersionInterval {
		return nil
	}

	a.snapshot.IsLatest = isLatest
	var err error
	if a.existsInStore {
		err = a.snapshotStore.Update(ctx, a.snapshot)
	} else {
		err = a.snapshotStore.Insert(ctx, a.snapshot)
		if err == nil {
			a.existsInStore = true
		}
	}
	if err != nil {
		return fmt.Errorf("%w: snapshot_store save: %v", ErrStorage, err)
	}

	a.snapshotEventVersion = a.snapshot.Version
	return nil
}
