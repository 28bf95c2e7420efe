package bus

import (
	"fmt"
	"strconv"

	"github.com/example/eventactor/internal/core"
)

// IDCodec round-trips a generic core.StateID through the string Kafka
// message keys are written as. Same shape as internal/storage/postgres's
// codec (Format plus Parse); the internal/storage/dynamo codec has Format
// only. A Kafka consumer needs Parse to recover the original ID from the
// key.
type IDCodec[ID core.StateID] struct {
	Format func(ID) string
	Parse  func(string) (ID, error)
}

func StringIDCodec() IDCodec[string] {
	return IDCodec[string]{
		Format: func(id string) string { return id },
		Parse:  func(s string) (string, error) { return s, nil },
	}
}

func Int64IDCodec() IDCodec[int64] {
	return IDCodec[int64]{
		Format: func(id int64) string { return strconv.FormatInt(id, 10) },
		Parse: func(s string) (int64, error) {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse state id %q: %w", s, err)
			}
			return v, nil
		},
	}
}
