package core

// Actor is the per-aggregate runtime: it owns exactly one Snapshot, its
// archive brief list, and at most one pending NewArchive for the duration
// of an activation. Nothing here is safe to call concurrently with itself
// — the host (out of scope for this package) guarantees single-threaded,
// non-reentrant delivery per StateId, so Actor takes no internal locks.
type Actor[ID StateID, P any] struct {
	StateKind string
	StateId   ID

	snapshot             *Snapshot[ID, P]
	snapshotEventVersion int64

	existsInStore bool

	briefs         []*ArchiveBrief[ID]
	lastArchive    *ArchiveBrief[ID]
	clearedArchive *ArchiveBrief[ID]
	newArchive     *ArchiveBrief[ID]

	apply         Applier[P, ID]
	createSnap    func() P
	typeCodeOf    func(event any) (string, error)
	serializer    Serializer
	typeFinder    TypeFinder
	eventLog      EventLogGateway[ID]
	snapshotStore SnapshotStoreGateway[ID, P]
	archiveStore  ArchiveStoreGateway[ID, P]
	observers     ObserverRegistry[ID]
	bus           EventBusProducer[ID]
	metrics       MetricMonitor

	opts Options
}

// Deps bundles the external collaborators an Actor needs: everything the
// runtime consumes but does not implement itself.
type Deps[ID StateID, P any] struct {
	Apply         Applier[P, ID]
	CreateSnap    func() P
	TypeCodeOf    func(event any) (string, error)
	Serializer    Serializer
	TypeFinder    TypeFinder
	EventLog      EventLogGateway[ID]
	SnapshotStore SnapshotStoreGateway[ID, P]
	ArchiveStore  ArchiveStoreGateway[ID, P]
	Observers     ObserverRegistry[ID]
	Bus           EventBusProducer[ID]
	Metrics       MetricMonitor
}

// NewActor constructs an inactive Actor. Recover() (typically called from
// Activate) must run before Raise is safe to call.
func NewActor[ID StateID, P any](stateKind string, stateId ID, opts Options, deps Deps[ID, P]) *Actor[ID, P] {
	if deps.CreateSnap == nil {
		deps.CreateSnap = func() P { var zero P; return zero }
	}
	return &Actor[ID, P]{
		StateKind:     stateKind,
		StateId:       stateId,
		apply:         deps.Apply,
		createSnap:    deps.CreateSnap,
		typeCodeOf:    deps.TypeCodeOf,
		serializer:    deps.Serializer,
		typeFinder:    deps.TypeFinder,
		eventLog:      deps.EventLog,
		snapshotStore: deps.SnapshotStore,
		archiveStore:  deps.ArchiveStore,
		observers:     deps.Observers,
		bus:           deps.Bus,
		metrics:       deps.Metrics,
		opts:          opts,
	}
}

// Snapshot returns the current in-memory snapshot. Callers must not retain
// or mutate the returned pointer past the current host-delivered call.
func (a *Actor[ID, P]) Snapshot() *Snapshot[ID, P] {
	return a.snapshot
}

// Version is a convenience accessor, used by tests and ledger.Service, that
// returns the committed version without reaching into Snapshot().
func (a *Actor[ID, P]) Version() int64 {
	if a.snapshot == nil {
		return 0
	}
	return a.snapshot.Version
}

func (a *Actor[ID, P]) logPrefix(subsystem string) string {
	return "[" + a.StateKind + ":" + subsystem + "] " + stateIDString(a.StateId) + ": "
}
