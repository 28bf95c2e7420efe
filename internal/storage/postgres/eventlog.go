package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/eventactor/internal/core"
	_ "github.com/lib/pq"
)

// The unique_key column exists solely for the idempotency contract of
// Append: (state_id, version) dedups concurrent commits, (state_id,
// unique_key) dedups retried raises.
const eventLogSchema = `
CREATE TABLE IF NOT EXISTS actor_events (
	state_id   TEXT NOT NULL,
	version    BIGINT NOT NULL,
	timestamp  BIGINT NOT NULL,
	type_code  TEXT NOT NULL,
	payload    BYTEA NOT NULL,
	unique_key TEXT NOT NULL,
	PRIMARY KEY (state_id, version),
	UNIQUE (state_id, unique_key)
);`

// EventLog is a core.EventLogGateway[ID] backed by PostgreSQL.
type EventLog[ID core.StateID] struct {
	db    *sql.DB
	codec IDCodec[ID]
}

func NewEventLog[ID core.StateID](db *sql.DB, codec IDCodec[ID]) *EventLog[ID] {
	return &EventLog[ID]{db: db, codec: codec}
}

// EnsureSchema creates the events table if it doesn't already exist.
func (l *EventLog[ID]) EnsureSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, eventLogSchema)
	return err
}

func (l *EventLog[ID]) Append(ctx context.Context, event core.FullyEvent[ID]) (bool, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO actor_events (state_id, version, timestamp, type_code, payload, unique_key)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT DO NOTHING`,
		l.codec.Format(event.StateId), event.BasicInfo.Version, event.BasicInfo.Timestamp,
		event.TypeCode, event.PayloadBytes, event.UniqueKey,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

func (l *EventLog[ID]) GetRange(ctx context.Context, stateId ID, fromTimestamp int64, fromVersionInclusive, toVersionInclusive int64) ([]core.FullyEvent[ID], error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT version, timestamp, type_code, payload, unique_key
		 FROM actor_events
		 WHERE state_id = $1 AND version >= $2 AND version <= $3 AND timestamp >= $4
		 ORDER BY version ASC`,
		l.codec.Format(stateId), fromVersionInclusive, toVersionInclusive, fromTimestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	var out []core.FullyEvent[ID]
	for rows.Next() {
		var e core.FullyEvent[ID]
		e.StateId = stateId
		if err := rows.Scan(&e.BasicInfo.Version, &e.BasicInfo.Timestamp, &e.TypeCode, &e.PayloadBytes, &e.UniqueKey); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *EventLog[ID]) DeletePrevious(ctx context.Context, stateId ID, upToVersionInclusive int64, fromTimestamp int64) error {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM actor_events WHERE state_id = $1 AND version <= $2 AND timestamp >= $3`,
		l.codec.Format(stateId), upToVersionInclusive, fromTimestamp,
	)
	if err != nil {
		return fmt.Errorf("delete previous: %w", err)
	}
	return nil
}
