package core

import "fmt"

// StateID is the primary key type of an actor: a 64-bit signed integer, a
// string, or a 128-bit UUID. uuid.UUID's underlying type is [16]byte, so
// the union below covers all three without a runtime tag.
type StateID interface {
	comparable
	~int64 | ~string | ~[16]byte
}

// stateIDString renders any StateID for log lines and error messages.
func stateIDString[ID StateID](id ID) string {
	return fmt.Sprintf("%v", id)
}
