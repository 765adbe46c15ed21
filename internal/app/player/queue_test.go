package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Shuffle_RoundTrip(t *testing.T) {
	fb := newFakeBackend("fake", 3*time.Minute)
	e := newTestEngine(t, fb)

	tracks := makeTracks(10)
	require.NoError(t, e.SetQueue(tracks, 4))
	playingID := e.State().CurrentTrack.ID

	e.SetShuffle(true)

	snap := e.State()
	assert.True(t, snap.Shuffle)
	assert.Equal(t, 0, snap.CurrentIndex, "current track pinned to the front")
	assert.Equal(t, playingID, snap.CurrentTrack.ID)
	assert.Len(t, snap.Queue, len(tracks))

	// Same multiset of tracks, current first.
	seen := make(map[string]bool)
	for _, tr := range snap.Queue {
		seen[tr.ID] = true
	}
	for _, tr := range tracks {
		assert.True(t, seen[tr.ID], "track %s missing after shuffle", tr.ID)
	}

	e.SetShuffle(false)

	snap = e.State()
	assert.False(t, snap.Shuffle)
	require.Len(t, snap.Queue, len(tracks))
	for i, tr := range tracks {
		assert.Equal(t, tr.ID, snap.Queue[i].ID, "original order restored at %d", i)
	}
	assert.Equal(t, 4, snap.CurrentIndex)
	assert.Equal(t, playingID, snap.CurrentTrack.ID)
}

func TestEngine_Shuffle_DoesNotInterruptPlayback(t *testing.T) {
	fb := newFakeBackend("fake", 3*time.Minute)
	e := newTestEngine(t, fb)

	require.NoError(t, e.SetQueue(makeTracks(5), 2))
	loadsBefore := fb.loadCalls

	e.SetShuffle(true)
	e.SetShuffle(false)

	assert.Equal(t, loadsBefore, fb.loadCalls, "toggling shuffle must not reload media")
	assert.True(t, e.State().IsPlaying)
}

func TestEngine_Shuffle_EmptyQueue(t *testing.T) {
	fb := newFakeBackend("fake", 0)
	e := newTestEngine(t, fb)

	e.SetShuffle(true)
	assert.True(t, e.State().Shuffle)
	assert.Equal(t, -1, e.State().CurrentIndex)

	e.SetShuffle(false)
	assert.False(t, e.State().Shuffle)
}

func TestEngine_Shuffle_Idempotent(t *testing.T) {
	fb := newFakeBackend("fake", 3*time.Minute)
	e := newTestEngine(t, fb)

	tracks := makeTracks(6)
	require.NoError(t, e.SetQueue(tracks, 0))

	e.SetShuffle(true)
	afterFirst := e.State().Queue

	// Enabling again is a no-op: order is unchanged.
	e.SetShuffle(true)
	afterSecond := e.State().Queue

	require.Equal(t, len(afterFirst), len(afterSecond))
	for i := range afterFirst {
		assert.Equal(t, afterFirst[i].ID, afterSecond[i].ID)
	}
}
