package core

// Applier mutates payload in place to reflect event. It must be pure and
// deterministic: no I/O, no reliance on wall-clock or randomness, and safe
// to invoke repeatedly for the same event across recovery replays (the
// caller is solely responsible for version-gating so Applier itself need
// not be idempotence-aware).
type Applier[P any, ID StateID] func(payload *P, event FullyEvent[ID]) error
