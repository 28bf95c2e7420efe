// Package memory provides in-process gateway implementations of the core
// package's storage interfaces. They back the actor-core test suite and
// double as a lightweight runtime backend for local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/eventactor/internal/core"
)

// EventLog is an in-memory core.EventLogGateway keyed by StateId, with a
// secondary unique-key index for idempotent append de-duplication.
type EventLog[ID core.StateID] struct {
	mu     sync.RWMutex
	events map[ID][]core.FullyEvent[ID]
	keys   map[ID]map[string]struct{}
}

func NewEventLog[ID core.StateID]() *EventLog[ID] {
	return &EventLog[ID]{
		events: make(map[ID][]core.FullyEvent[ID]),
		keys:   make(map[ID]map[string]struct{}),
	}
}

func (l *EventLog[ID]) Append(ctx context.Context, event core.FullyEvent[ID]) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.keys[event.StateId] == nil {
		l.keys[event.StateId] = make(map[string]struct{})
	}
	if _, dup := l.keys[event.StateId][event.UniqueKey]; dup {
		return false, nil
	}
	for _, existing := range l.events[event.StateId] {
		if existing.BasicInfo.Version == event.BasicInfo.Version {
			return false, nil
		}
	}

	l.events[event.StateId] = append(l.events[event.StateId], event)
	l.keys[event.StateId][event.UniqueKey] = struct{}{}
	return true, nil
}

func (l *EventLog[ID]) GetRange(ctx context.Context, stateId ID, fromTimestamp int64, fromVersionInclusive, toVersionInclusive int64) ([]core.FullyEvent[ID], error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.FullyEvent[ID]
	for _, e := range l.events[stateId] {
		if e.BasicInfo.Version >= fromVersionInclusive && e.BasicInfo.Version <= toVersionInclusive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BasicInfo.Version < out[j].BasicInfo.Version })
	return out, nil
}

func (l *EventLog[ID]) DeletePrevious(ctx context.Context, stateId ID, upToVersionInclusive int64, fromTimestamp int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.events[stateId][:0]
	for _, e := range l.events[stateId] {
		if e.BasicInfo.Version <= upToVersionInclusive && e.BasicInfo.Timestamp >= fromTimestamp {
			continue
		}
		kept = append(kept, e)
	}
	l.events[stateId] = kept
	return nil
}
