package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchiveBriefIsCompletedByVersionSpan(t *testing.T) {
	opts := ArchiveOptions{MinCompletedVersionSpan: 10}
	b := &ArchiveBrief[string]{StartVersion: 1, EndVersion: 10}
	assert.True(t, b.IsCompleted(opts, nil))

	b2 := &ArchiveBrief[string]{StartVersion: 1, EndVersion: 9}
	assert.False(t, b2.IsCompleted(opts, nil))
}

func TestArchiveBriefIsCompletedByWallTime(t *testing.T) {
	opts := ArchiveOptions{MinCompletedWallTime: time.Hour}
	b := &ArchiveBrief[string]{StartTimestamp: 0, EndTimestamp: int64(2 * time.Hour / time.Millisecond)}
	assert.True(t, b.IsCompleted(opts, nil))

	b2 := &ArchiveBrief[string]{StartTimestamp: 0, EndTimestamp: int64(30 * time.Minute / time.Millisecond)}
	assert.False(t, b2.IsCompleted(opts, nil))
}

func TestArchiveBriefWidenExtendsRange(t *testing.T) {
	b := &ArchiveBrief[string]{StartVersion: 5, EndVersion: 5, StartTimestamp: 100, EndTimestamp: 100}
	b.widen(6, 50)
	assert.Equal(t, int64(6), b.EndVersion)
	assert.Equal(t, int64(50), b.StartTimestamp, "an earlier event timestamp must widen StartTimestamp")

	b.widen(7, 200)
	assert.Equal(t, int64(200), b.EndTimestamp)
}

func TestCombineArchiveTakesUnionOfRange(t *testing.T) {
	main := &ArchiveBrief[string]{StartVersion: 10, EndVersion: 20, StartTimestamp: 1000, EndTimestamp: 2000, Index: 2}
	merge := &ArchiveBrief[string]{StartVersion: 5, EndVersion: 12, StartTimestamp: 500, EndTimestamp: 1500}

	out := combineArchive(main, merge)

	assert.Equal(t, int64(5), out.StartVersion)
	assert.Equal(t, int64(20), out.EndVersion)
	assert.Equal(t, int64(500), out.StartTimestamp)
	assert.Equal(t, int64(2000), out.EndTimestamp)
	assert.Equal(t, 2, out.Index, "Index is taken from the surviving (main) brief")
}
