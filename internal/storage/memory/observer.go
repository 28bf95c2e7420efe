package memory

import (
	"context"
	"sync"

	"github.com/example/eventactor/internal/core"
)

// ObserverRegistry is an in-memory core.ObserverRegistry[ID] for tests and
// single-process demos: observers "commit" by calling Ack, and HandleEvent
// (the synchronous bus-fallback path) acks every registered observer by
// default, since there is nowhere else for the event to go.
type ObserverRegistry[ID core.StateID] struct {
	mu        sync.Mutex
	names     []string
	committed map[ID]map[string]int64
	failNext  map[string]bool
}

func NewObserverRegistry[ID core.StateID](names ...string) *ObserverRegistry[ID] {
	return &ObserverRegistry[ID]{
		names:     names,
		committed: make(map[ID]map[string]int64),
		failNext:  make(map[string]bool),
	}
}

// Ack records that observer has committed stateId through version.
func (r *ObserverRegistry[ID]) Ack(stateId ID, observer string, version int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed[stateId] == nil {
		r.committed[stateId] = make(map[string]int64)
	}
	r.committed[stateId][observer] = version
}

// FailNextSync makes the next SyncAll call report observer as failed once.
func (r *ObserverRegistry[ID]) FailNextSync(observer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext[observer] = true
}

func (r *ObserverRegistry[ID]) Versions(ctx context.Context, stateId ID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.names))
	for _, n := range r.names {
		out[n] = r.committed[stateId][n]
	}
	return out, nil
}

func (r *ObserverRegistry[ID]) SyncAll(ctx context.Context, stateId ID, targetVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := true
	for _, n := range r.names {
		if r.failNext[n] {
			r.failNext[n] = false
			ok = false
			continue
		}
		if r.committed[stateId] == nil {
			r.committed[stateId] = make(map[string]int64)
		}
		r.committed[stateId][n] = targetVersion
	}
	return ok, nil
}

func (r *ObserverRegistry[ID]) HandleEvent(ctx context.Context, stateId ID, event core.FullyEvent[ID]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed[stateId] == nil {
		r.committed[stateId] = make(map[string]int64)
	}
	for _, n := range r.names {
		r.committed[stateId][n] = event.BasicInfo.Version
	}
	return nil
}

func (r *ObserverRegistry[ID]) NotifyReset(ctx context.Context, oldID, newID ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.committed, oldID)
	return nil
}
