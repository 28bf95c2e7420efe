package memory

import (
	"context"
	"sync"

	"github.com/example/eventactor/internal/core"
)

// SnapshotStore is an in-memory core.SnapshotStoreGateway[ID, P].
type SnapshotStore[ID core.StateID, P any] struct {
	mu   sync.RWMutex
	data map[ID]*core.Snapshot[ID, P]
	over map[ID]bool
}

func NewSnapshotStore[ID core.StateID, P any]() *SnapshotStore[ID, P] {
	return &SnapshotStore[ID, P]{
		data: make(map[ID]*core.Snapshot[ID, P]),
		over: make(map[ID]bool),
	}
}

func (s *SnapshotStore[ID, P]) Get(ctx context.Context, stateId ID) (*core.Snapshot[ID, P], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.data[stateId]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (s *SnapshotStore[ID, P]) Insert(ctx context.Context, snap *core.Snapshot[ID, P]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	s.data[snap.StateId] = &cp
	return nil
}

func (s *SnapshotStore[ID, P]) Update(ctx context.Context, snap *core.Snapshot[ID, P]) error {
	return s.Insert(ctx, snap)
}

func (s *SnapshotStore[ID, P]) UpdateIsLatest(ctx context.Context, stateId ID, isLatest bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[stateId]; ok {
		snap.IsLatest = isLatest
	}
	return nil
}

func (s *SnapshotStore[ID, P]) UpdateLatestMinEventTimestamp(ctx context.Context, stateId ID, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[stateId]; ok {
		snap.LatestMinEventTimestamp = ts
	}
	return nil
}

func (s *SnapshotStore[ID, P]) UpdateStartTimestamp(ctx context.Context, stateId ID, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[stateId]; ok {
		snap.StartTimestamp = ts
	}
	return nil
}

func (s *SnapshotStore[ID, P]) Over(ctx context.Context, stateId ID, over bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.over[stateId] = over
	if snap, ok := s.data[stateId]; ok {
		snap.IsOver = over
	}
	return nil
}

func (s *SnapshotStore[ID, P]) Delete(ctx context.Context, stateId ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, stateId)
	delete(s.over, stateId)
	return nil
}
