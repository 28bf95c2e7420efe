package core

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveBrief is archive metadata without the snapshot body: an indexed,
// dense record of the event range a past archive body covers.
type ArchiveBrief[ID StateID] struct {
	StateId        ID
	Id             uuid.UUID
	Index          int
	StartVersion   int64
	EndVersion     int64
	StartTimestamp int64
	EndTimestamp   int64
	EventIsCleared bool
}

// IsCompleted applies the operator-tunable policy: a brief is ready for
// promotion once it spans enough versions, or enough wall-clock time has
// elapsed since the prior archive, whichever comes first.
func (b *ArchiveBrief[ID]) IsCompleted(opts ArchiveOptions, last *ArchiveBrief[ID]) bool {
	if b == nil {
		return false
	}
	span := b.EndVersion - b.StartVersion + 1
	if opts.MinCompletedVersionSpan > 0 && span >= int64(opts.MinCompletedVersionSpan) {
		return true
	}
	if opts.MinCompletedWallTime <= 0 {
		return false
	}
	baseline := b.StartTimestamp
	if last != nil {
		baseline = last.EndTimestamp
	}
	elapsed := time.Duration(b.EndTimestamp-baseline) * time.Millisecond
	return elapsed >= opts.MinCompletedWallTime
}

// widen extends an in-flight brief with a newly archived event, advancing
// EndVersion and pulling Start/EndTimestamp out to cover the event.
func (b *ArchiveBrief[ID]) widen(version, timestamp int64) {
	b.EndVersion = version
	if timestamp < b.StartTimestamp {
		b.StartTimestamp = timestamp
	}
	if timestamp > b.EndTimestamp {
		b.EndTimestamp = timestamp
	}
}

// combineArchive merges two briefs that cover overlapping or adjacent
// ranges — used when a retro-dated event forces older completed briefs to
// be folded back into the pending one. The merged range is the union of
// both; Index/Id/EventIsCleared are taken from main (the survivor).
func combineArchive[ID StateID](main, merge *ArchiveBrief[ID]) *ArchiveBrief[ID] {
	out := *main
	out.StartTimestamp = minInt64(main.StartTimestamp, merge.StartTimestamp)
	out.StartVersion = minInt64(main.StartVersion, merge.StartVersion)
	out.EndTimestamp = maxInt64(main.EndTimestamp, merge.EndTimestamp)
	out.EndVersion = maxInt64(main.EndVersion, merge.EndVersion)
	return &out
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
