package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotTwoPhaseVersionAdvance(t *testing.T) {
	s := &Snapshot[string, int]{}

	assert.NoError(t, s.IncrementDoingVersion())
	assert.Equal(t, int64(1), s.DoingVersion)
	assert.Equal(t, int64(0), s.Version, "Version must not move until UpdateVersion commits")

	assert.NoError(t, s.UpdateVersion(1))
	assert.Equal(t, int64(1), s.Version)
	assert.NoError(t, s.AssertCommitted())
}

func TestSnapshotIncrementWhileInFlightFails(t *testing.T) {
	s := &Snapshot[string, int]{}
	require := assert.New(t)

	require.NoError(s.IncrementDoingVersion())
	require.ErrorIs(s.IncrementDoingVersion(), ErrStateInsecurity, "a second increment before commit must be rejected")
}

func TestSnapshotDecrementRollsBackFailedAppend(t *testing.T) {
	s := &Snapshot[string, int]{Version: 3, DoingVersion: 3}

	assert.NoError(t, s.IncrementDoingVersion())
	s.DecrementDoingVersion()

	assert.Equal(t, s.Version, s.DoingVersion)
	assert.NoError(t, s.AssertCommitted())
}

func TestSnapshotUpdateVersionRejectsTornCommit(t *testing.T) {
	s := &Snapshot[string, int]{Version: 5, DoingVersion: 6}
	assert.ErrorIs(t, s.UpdateVersion(7), ErrStateInsecurity)
}

func TestSnapshotWitnessTimestampOnlyMovesEarlier(t *testing.T) {
	s := &Snapshot[string, int]{}

	startMoved, minMoved := s.WitnessTimestamp(100)
	assert.True(t, startMoved)
	assert.True(t, minMoved)
	assert.Equal(t, int64(100), s.StartTimestamp)

	startMoved, minMoved = s.WitnessTimestamp(200)
	assert.False(t, startMoved, "a later timestamp must not move StartTimestamp forward")
	assert.False(t, minMoved)
	assert.Equal(t, int64(100), s.StartTimestamp)

	startMoved, minMoved = s.WitnessTimestamp(50)
	assert.True(t, startMoved, "an earlier (retro-dated) timestamp must widen the bound")
	assert.True(t, minMoved)
	assert.Equal(t, int64(50), s.StartTimestamp)
}

func TestDeriveUniqueKeyIsDeterministic(t *testing.T) {
	a := deriveUniqueKey("acct-1", "Deposited", []byte(`{"amount":5}`), 3)
	b := deriveUniqueKey("acct-1", "Deposited", []byte(`{"amount":5}`), 3)
	assert.Equal(t, a, b)

	c := deriveUniqueKey("acct-1", "Deposited", []byte(`{"amount":6}`), 3)
	assert.NotEqual(t, a, c, "differing payload bytes must yield a differing key")
}
