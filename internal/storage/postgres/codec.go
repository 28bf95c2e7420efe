// Package postgres implements the event log and snapshot store gateways
// against PostgreSQL via github.com/lib/pq: plain database/sql, inline
// SQL, no ORM or query builder.
package postgres

import (
	"fmt"

	"github.com/example/eventactor/internal/core"
)

// IDCodec converts a generic core.StateID to and from the text column the
// gateways store it in. Callers of the generic gateways supply one codec
// per concrete ID type used in their system.
type IDCodec[ID core.StateID] struct {
	Format func(ID) string
	Parse  func(string) (ID, error)
}

// StringIDCodec is the identity codec for aggregates keyed by string.
func StringIDCodec() IDCodec[string] {
	return IDCodec[string]{
		Format: func(id string) string { return id },
		Parse:  func(s string) (string, error) { return s, nil },
	}
}

// Int64IDCodec is the codec for aggregates keyed by a 64-bit signed integer.
func Int64IDCodec() IDCodec[int64] {
	return IDCodec[int64]{
		Format: func(id int64) string { return fmt.Sprintf("%d", id) },
		Parse: func(s string) (int64, error) {
			var v int64
			_, err := fmt.Sscanf(s, "%d", &v)
			return v, err
		},
	}
}
