package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/eventactor/internal/core"
	_ "github.com/lib/pq"
)

const snapshotStoreSchema = `
CREATE TABLE IF NOT EXISTS actor_snapshots (
	state_id                    TEXT PRIMARY KEY,
	payload                     JSONB NOT NULL,
	version                     BIGINT NOT NULL,
	doing_version               BIGINT NOT NULL,
	start_timestamp             BIGINT NOT NULL,
	latest_min_event_timestamp  BIGINT NOT NULL,
	is_latest                   BOOLEAN NOT NULL,
	is_over                     BOOLEAN NOT NULL
);`

// SnapshotStore is a core.SnapshotStoreGateway[ID, P] backed by PostgreSQL.
// The payload is stored as JSONB rather than flat columns
// since P is caller-defined and opaque to this package; callers who need a
// queryable projection of the payload should keep one in a readmodel table
// fed by an observer instead of reaching into this one.
type SnapshotStore[ID core.StateID, P any] struct {
	db    *sql.DB
	codec IDCodec[ID]
}

func NewSnapshotStore[ID core.StateID, P any](db *sql.DB, codec IDCodec[ID]) *SnapshotStore[ID, P] {
	return &SnapshotStore[ID, P]{db: db, codec: codec}
}

func (s *SnapshotStore[ID, P]) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, snapshotStoreSchema)
	return err
}

func (s *SnapshotStore[ID, P]) Get(ctx context.Context, stateId ID) (*core.Snapshot[ID, P], error) {
	var payload []byte
	snap := &core.Snapshot[ID, P]{StateId: stateId}
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, version, doing_version, start_timestamp, latest_min_event_timestamp, is_latest, is_over
		 FROM actor_snapshots WHERE state_id = $1`,
		s.codec.Format(stateId),
	).Scan(&payload, &snap.Version, &snap.DoingVersion, &snap.StartTimestamp, &snap.LatestMinEventTimestamp, &snap.IsLatest, &snap.IsOver)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if err := json.Unmarshal(payload, &snap.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return snap, nil
}

func (s *SnapshotStore[ID, P]) Insert(ctx context.Context, snap *core.Snapshot[ID, P]) error {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO actor_snapshots
		 (state_id, payload, version, doing_version, start_timestamp, latest_min_event_timestamp, is_latest, is_over)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.codec.Format(snap.StateId), payload, snap.Version, snap.DoingVersion,
		snap.StartTimestamp, snap.LatestMinEventTimestamp, snap.IsLatest, snap.IsOver,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore[ID, P]) Update(ctx context.Context, snap *core.Snapshot[ID, P]) error {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE actor_snapshots SET
		 payload = $2, version = $3, doing_version = $4, start_timestamp = $5,
		 latest_min_event_timestamp = $6, is_latest = $7, is_over = $8
		 WHERE state_id = $1`,
		s.codec.Format(snap.StateId), payload, snap.Version, snap.DoingVersion,
		snap.StartTimestamp, snap.LatestMinEventTimestamp, snap.IsLatest, snap.IsOver,
	)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore[ID, P]) UpdateIsLatest(ctx context.Context, stateId ID, isLatest bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE actor_snapshots SET is_latest = $2 WHERE state_id = $1`,
		s.codec.Format(stateId), isLatest,
	)
	return err
}

func (s *SnapshotStore[ID, P]) UpdateLatestMinEventTimestamp(ctx context.Context, stateId ID, ts int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE actor_snapshots SET latest_min_event_timestamp = $2 WHERE state_id = $1`,
		s.codec.Format(stateId), ts,
	)
	return err
}

func (s *SnapshotStore[ID, P]) UpdateStartTimestamp(ctx context.Context, stateId ID, ts int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE actor_snapshots SET start_timestamp = $2 WHERE state_id = $1`,
		s.codec.Format(stateId), ts,
	)
	return err
}

func (s *SnapshotStore[ID, P]) Over(ctx context.Context, stateId ID, over bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE actor_snapshots SET is_over = $2 WHERE state_id = $1`,
		s.codec.Format(stateId), over,
	)
	return err
}

func (s *SnapshotStore[ID, P]) Delete(ctx context.Context, stateId ID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM actor_snapshots WHERE state_id = $1`,
		s.codec.Format(stateId),
	)
	return err
}
