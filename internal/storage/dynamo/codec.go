package dynamo

import (
	"fmt"

	"github.com/example/eventactor/internal/core"
)

// IDCodec formats a generic core.StateID as the string DynamoDB partition
// key value it's stored under. Mirrors internal/storage/postgres.IDCodec.
type IDCodec[ID core.StateID] struct {
	Format func(ID) string
}

func StringIDCodec() IDCodec[string] {
	return IDCodec[string]{Format: func(id string) string { return id }}
}

func Int64IDCodec() IDCodec[int64] {
	return IDCodec[int64]{Format: func(id int64) string { return fmt.Sprintf("%d", id) }}
}
