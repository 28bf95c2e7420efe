package memory

import (
	"context"
	"sync"

	"github.com/example/eventactor/internal/core"
	"github.com/google/uuid"
)

type archivedBody[ID core.StateID, P any] struct {
	brief *core.ArchiveBrief[ID]
	snap  *core.Snapshot[ID, P]
}

// ArchiveStore is an in-memory core.ArchiveStoreGateway[ID, P].
type ArchiveStore[ID core.StateID, P any] struct {
	mu             sync.RWMutex
	briefs         map[ID][]*core.ArchiveBrief[ID]
	bodies         map[ID]map[uuid.UUID]archivedBody[ID, P]
	over           map[ID]bool
	archived       map[ID]int64                 // highest end version moved into archive-event storage
	archivedEvents map[ID][]core.FullyEvent[ID] // events actually moved, ascending by version
}

func NewArchiveStore[ID core.StateID, P any]() *ArchiveStore[ID, P] {
	return &ArchiveStore[ID, P]{
		briefs:         make(map[ID][]*core.ArchiveBrief[ID]),
		bodies:         make(map[ID]map[uuid.UUID]archivedBody[ID, P]),
		over:           make(map[ID]bool),
		archived:       make(map[ID]int64),
		archivedEvents: make(map[ID][]core.FullyEvent[ID]),
	}
}

func (s *ArchiveStore[ID, P]) GetBriefs(ctx context.Context, stateId ID) ([]*core.ArchiveBrief[ID], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.ArchiveBrief[ID], len(s.briefs[stateId]))
	for i, b := range s.briefs[stateId] {
		cp := *b
		out[i] = &cp
	}
	return out, nil
}

func (s *ArchiveStore[ID, P]) GetByID(ctx context.Context, stateId ID, briefId uuid.UUID) (*core.Snapshot[ID, P], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.bodies[stateId][briefId]
	if !ok {
		return nil, nil
	}
	cp := *body.snap
	return &cp, nil
}

func (s *ArchiveStore[ID, P]) Insert(ctx context.Context, brief *core.ArchiveBrief[ID], snap *core.Snapshot[ID, P]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	briefCp := *brief
	s.briefs[brief.StateId] = append(s.briefs[brief.StateId], &briefCp)
	if s.bodies[brief.StateId] == nil {
		s.bodies[brief.StateId] = make(map[uuid.UUID]archivedBody[ID, P])
	}
	snapCp := *snap
	s.bodies[brief.StateId][brief.Id] = archivedBody[ID, P]{brief: &briefCp, snap: &snapCp}
	return nil
}

func (s *ArchiveStore[ID, P]) Delete(ctx context.Context, stateId ID, briefId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.briefs[stateId][:0]
	for _, b := range s.briefs[stateId] {
		if b.Id == briefId {
			continue
		}
		kept = append(kept, b)
	}
	s.briefs[stateId] = kept
	delete(s.bodies[stateId], briefId)
	return nil
}

func (s *ArchiveStore[ID, P]) DeleteAll(ctx context.Context, stateId ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.briefs, stateId)
	delete(s.bodies, stateId)
	return nil
}

func (s *ArchiveStore[ID, P]) EventIsClear(ctx context.Context, stateId ID, briefId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.briefs[stateId] {
		if b.Id == briefId {
			b.EventIsCleared = true
		}
	}
	return nil
}

func (s *ArchiveStore[ID, P]) EventArchive(ctx context.Context, stateId ID, events []core.FullyEvent[ID], endVersion int64, startTimestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archivedEvents[stateId] = append(s.archivedEvents[stateId], events...)
	if cur := s.archived[stateId]; endVersion > cur {
		s.archived[stateId] = endVersion
	}
	return nil
}

// ArchivedEvents returns the events moved into archive-event storage for
// stateId, ascending by version. Test-only accessor.
func (s *ArchiveStore[ID, P]) ArchivedEvents(stateId ID) []core.FullyEvent[ID] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.FullyEvent[ID], len(s.archivedEvents[stateId]))
	copy(out, s.archivedEvents[stateId])
	return out
}

func (s *ArchiveStore[ID, P]) Over(ctx context.Context, stateId ID, over bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.over[stateId] = over
	return nil
}
