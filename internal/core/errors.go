package core

import "errors"

// Error kinds for the raise/recover/archive/lifecycle protocols. Invariant
// failures (StateIsOver, StateInsecurity, EventIsCleared) are never retried
// locally; they surface to the caller directly.
var (
	ErrStateIsOver            = errors.New("core: state is over")
	ErrStateInsecurity        = errors.New("core: version/doing-version invariant broken")
	ErrEventIsCleared         = errors.New("core: event falls inside a cleared archive window")
	ErrObserverNotCompleted   = errors.New("core: observer has not caught up to current version")
	ErrSyncAllObserversFailed = errors.New("core: observer sync failed during activation")
	ErrUnfindSnapshotHandler  = errors.New("core: no applier registered for this actor")
	ErrStorage                = errors.New("core: storage gateway failure")
	ErrSerialization          = errors.New("core: payload serialization failure")
)
