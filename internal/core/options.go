package core

import "time"

// EventArchiveType selects what happens to events once an archive's
// covered range is cleared: Delete removes them outright, Move copies them
// into archive-event storage first.
type EventArchiveType string

const (
	EventArchiveDelete EventArchiveType = "delete"
	EventArchiveMove   EventArchiveType = "move"
)

// ArchiveOptions tunes the archive engine. MinCompletedVersionSpan and
// MinCompletedWallTime both feed ArchiveBrief.IsCompleted; either one being
// satisfied triggers promotion.
type ArchiveOptions struct {
	On                             bool             `env:"ARCHIVE_ON" envDefault:"true"`
	MaxSnapshotArchiveRecords      int              `env:"ARCHIVE_MAX_RECORDS" envDefault:"3"`
	MinVersionIntervalAtDeactivate int64            `env:"ARCHIVE_MIN_INTERVAL_DEACTIVATE" envDefault:"1"`
	EventArchiveType               EventArchiveType `env:"ARCHIVE_EVENT_TYPE" envDefault:"move"`
	MinCompletedVersionSpan        int              `env:"ARCHIVE_MIN_VERSION_SPAN" envDefault:"50"`
	MinCompletedWallTime           time.Duration    `env:"ARCHIVE_MIN_WALL_TIME" envDefault:"1h"`
}

// Options are the configuration knobs the actor runtime consumes.
// Loaded in production via github.com/caarlos0/env/v11 (see cmd/demo).
type Options struct {
	NumberOfEventsPerRead      int64 `env:"EVENTS_PER_READ" envDefault:"100"`
	SnapshotVersionInterval    int64 `env:"SNAPSHOT_VERSION_INTERVAL" envDefault:"20"`
	MinSnapshotVersionInterval int64 `env:"MIN_SNAPSHOT_VERSION_INTERVAL" envDefault:"1"`
	PriorityAsyncEventBus      bool  `env:"PRIORITY_ASYNC_EVENT_BUS" envDefault:"true"`
	SyncAllObserversOnActivate bool  `env:"SYNC_OBSERVERS_ON_ACTIVATE" envDefault:"false"`
	Archive                    ArchiveOptions
}

// DefaultOptions mirrors envDefault values for callers that construct
// Options without going through env.Parse (tests, in-process wiring).
func DefaultOptions() Options {
	return Options{
		NumberOfEventsPerRead:      100,
		SnapshotVersionInterval:    20,
		MinSnapshotVersionInterval: 1,
		PriorityAsyncEventBus:      true,
		SyncAllObserversOnActivate: false,
		Archive: ArchiveOptions{
			On:                             true,
			MaxSnapshotArchiveRecords:      3,
			MinVersionIntervalAtDeactivate: 1,
			EventArchiveType:               EventArchiveMove,
			MinCompletedVersionSpan:        50,
			MinCompletedWallTime:           time.Hour,
		},
	}
}
