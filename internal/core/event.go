package core

// BasicInfo is the versioning/ordering header carried on every event, both
// in the durable log and on the wire to the bus.
type BasicInfo struct {
	Version   int64
	Timestamp int64 // ms since epoch
}

// FullyEvent is the unit the event log gateway persists and the bus carries:
// an aggregate identity, the version/timestamp header, and the encoded
// domain payload. Deliberately opaque past TypeCode/PayloadBytes — decoding
// is the applier's job, matching how domain code owns its own event union.
type FullyEvent[ID StateID] struct {
	StateId      ID
	BasicInfo    BasicInfo
	TypeCode     string
	PayloadBytes []byte
	UniqueKey    string
}

// EventUID is the caller-supplied idempotency token for raise. Timestamp is
// optional; zero means "use wall-clock now". Key, when empty, is derived
// deterministically from the event's encoded identity (see uniquekey.go).
type EventUID struct {
	Key       string
	Timestamp int64
}

// DomainEvent is implemented by event payload types passed to Actor.Raise.
// TypeCode identifies the concrete Go type across serialization boundaries
// (log storage, archive bodies, bus envelopes) without reflection.
type DomainEvent interface {
	TypeCode() string
}
