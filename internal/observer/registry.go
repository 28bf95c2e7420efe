// Package observer implements core.ObserverRegistry: the downstream-progress
// tracker the archive engine and lifecycle controller consult before
// clearing events or marking an actor Over. It tracks the one fact
// the core actually needs from a downstream consumer: the highest version
// each named observer has acknowledged for a given aggregate.
package observer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/example/eventactor/internal/core"
)

// Handler is invoked once per observer for every event delivered through
// the synchronous bus-fallback path (HandleEvent). Returning an error marks
// that observer as not caught up for this event's version.
type Handler[ID core.StateID] func(ctx context.Context, stateId ID, event core.FullyEvent[ID]) error

// Registry is an in-process core.ObserverRegistry[ID]. Production
// deployments register one Handler per downstream consumer (a read-model
// projector, a notification dispatcher, …) at startup.
type Registry[ID core.StateID] struct {
	mu        sync.Mutex
	handlers  map[string]Handler[ID]
	committed map[ID]map[string]int64
}

func NewRegistry[ID core.StateID]() *Registry[ID] {
	return &Registry[ID]{
		handlers:  make(map[string]Handler[ID]),
		committed: make(map[ID]map[string]int64),
	}
}

// Register adds an observer by name. Re-registering a name replaces its
// handler.
func (r *Registry[ID]) Register(name string, h Handler[ID]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Ack records that observer has committed stateId through version. HandleEvent
// calls it after a handler succeeds; the asynchronous paths (the observersync
// lambda, bus.KafkaObserverConsumer) call it directly. A version lower than
// the one already recorded is ignored.
func (r *Registry[ID]) Ack(stateId ID, observerName string, version int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed[stateId] == nil {
		r.committed[stateId] = make(map[string]int64)
	}
	if version > r.committed[stateId][observerName] {
		r.committed[stateId][observerName] = version
	}
}

func (r *Registry[ID]) Versions(ctx context.Context, stateId ID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.handlers))
	for name := range r.handlers {
		out[name] = r.committed[stateId][name]
	}
	return out, nil
}

// SyncAll reports whether every registered observer has already acked
// targetVersion. It neither waits nor replays events to a lagging observer.
func (r *Registry[ID]) SyncAll(ctx context.Context, stateId ID, targetVersion int64) (bool, error) {
	r.mu.Lock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	r.mu.Unlock()

	ok := true
	for _, name := range names {
		if cur := r.currentVersion(stateId, name); cur < targetVersion {
			ok = false
			log.Printf("[observer] %s not yet at version %d (at %d)", name, targetVersion, cur)
		}
	}
	return ok, nil
}

func (r *Registry[ID]) currentVersion(stateId ID, name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed[stateId][name]
}

// HandleEvent is the synchronous bus-fallback path: every registered
// handler runs in turn (map iteration order, which is not fixed), and
// success acks that observer to the event's
// version. The first handler error aborts the fan-out and is returned.
func (r *Registry[ID]) HandleEvent(ctx context.Context, stateId ID, event core.FullyEvent[ID]) error {
	r.mu.Lock()
	handlers := make(map[string]Handler[ID], len(r.handlers))
	for name, h := range r.handlers {
		handlers[name] = h
	}
	r.mu.Unlock()

	for name, h := range handlers {
		if err := h(ctx, stateId, event); err != nil {
			return fmt.Errorf("observer %s: %w", name, err)
		}
		r.Ack(stateId, name, event.BasicInfo.Version)
	}
	return nil
}

func (r *Registry[ID]) NotifyReset(ctx context.Context, oldID, newID ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.committed, oldID)
	return nil
}
