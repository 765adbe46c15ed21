package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketbox/pocketbox/internal/app/player"
	"github.com/pocketbox/pocketbox/internal/domain/track"
	"github.com/pocketbox/pocketbox/internal/infra/store"
)

// memStore is an in-memory Store for checkpointer tests.
type memStore struct {
	mu       sync.Mutex
	tracks   map[string]track.Track
	settings map[string]string
	writes   int
}

func newMemStore(tracks ...track.Track) *memStore {
	s := &memStore{
		tracks:   make(map[string]track.Track),
		settings: make(map[string]string),
	}
	for _, t := range tracks {
		s.tracks[t.ID] = t
	}
	return s
}

func (s *memStore) GetTrack(id string) (track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[id]
	if !ok {
		return track.Track{}, errors.Wrapf(store.ErrNotFound, "track %s", id)
	}
	return t, nil
}

func (s *memStore) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	s.writes++
	return nil
}

func (s *memStore) GetSetting(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *memStore) setting(t *testing.T, key string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key]
}

// stubBackend satisfies player.Backend with no real audio output.
type stubBackend struct {
	mu      sync.Mutex
	loaded  bool
	playing bool
	pos     time.Duration
	dur     time.Duration
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Load(_ context.Context, _ track.Track, _ func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loaded = true
	b.pos = 0
	return nil
}

func (b *stubBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = true
	return nil
}

func (b *stubBackend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = false
	return nil
}

func (b *stubBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loaded = false
	b.playing = false
	b.pos = 0
	return nil
}

func (b *stubBackend) Seek(pos time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pos = pos
	return nil
}

func (b *stubBackend) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

func (b *stubBackend) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dur
}

func (b *stubBackend) SetVolume(float64) {}

func makeTracks(n int) []track.Track {
	tracks := make([]track.Track, n)
	for i := range tracks {
		tracks[i] = track.Track{
			ID:       fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("Track %d", i),
			Source:   track.SourceLocal,
			Locator:  fmt.Sprintf("/music/%d.mp3", i),
			Duration: 3 * time.Minute,
		}
	}
	return tracks
}

func newTestEngine(t *testing.T) *player.Engine {
	t.Helper()
	backend := &stubBackend{dur: 3 * time.Minute}
	e := player.New(player.DefaultConfig(), func(track.Track) []player.Backend {
		return []player.Backend{backend}
	})
	t.Cleanup(e.Close)
	return e
}

func TestCheckpointer_WritesOnTrackChange(t *testing.T) {
	st := newMemStore()
	e := newTestEngine(t)
	cp := NewCheckpointer(e, st)
	cp.Start()
	defer cp.Close()

	tracks := makeTracks(3)
	require.NoError(t, e.SetQueue(tracks, 1))

	assert.Eventually(t, func() bool {
		return st.setting(t, keyIndex) == "1"
	}, time.Second, 10*time.Millisecond)

	assert.JSONEq(t, `["t0","t1","t2"]`, st.setting(t, keyQueue))
	assert.Equal(t, "off", st.setting(t, keyRepeat))

	require.NoError(t, e.Next())

	assert.Eventually(t, func() bool {
		return st.setting(t, keyIndex) == "2"
	}, time.Second, 10*time.Millisecond)
}

func TestCheckpointer_ThrottlesProgressWrites(t *testing.T) {
	st := newMemStore()
	e := newTestEngine(t)
	cp := NewCheckpointer(e, st)
	cp.Start()
	defer cp.Close()

	require.NoError(t, e.SetQueue(makeTracks(1), 0))

	assert.Eventually(t, func() bool {
		return st.setting(t, keyQueue) != ""
	}, time.Second, 10*time.Millisecond)

	st.mu.Lock()
	before := st.writes
	st.mu.Unlock()

	// Position-only updates inside the flush interval are dropped.
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Seek(time.Duration(i+1)*time.Second))
	}
	time.Sleep(50 * time.Millisecond)

	st.mu.Lock()
	after := st.writes
	st.mu.Unlock()
	assert.Equal(t, before, after)
}

func TestCheckpointer_Restore(t *testing.T) {
	tracks := makeTracks(3)
	st := newMemStore(tracks...)
	st.settings[keyQueue] = `["t0","t1","t2"]`
	st.settings[keyIndex] = "2"
	st.settings[keyPosition] = "45000"
	st.settings[keyVolume] = "0.6"
	st.settings[keyShuffle] = "false"
	st.settings[keyRepeat] = "all"

	e := newTestEngine(t)
	cp := NewCheckpointer(e, st)

	resumed, err := cp.Restore()
	require.NoError(t, err)
	assert.True(t, resumed)

	snap := e.State()
	assert.False(t, snap.IsPlaying)
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "t2", snap.CurrentTrack.ID)
	assert.Equal(t, 2, snap.CurrentIndex)
	assert.Equal(t, 45*time.Second, snap.Position)
	assert.Equal(t, 0.6, snap.Volume)
	assert.Equal(t, player.RepeatAll, snap.Repeat)
}

func TestCheckpointer_Restore_SkipsMissingTracks(t *testing.T) {
	tracks := makeTracks(3)
	// t1 was removed from the library after the checkpoint.
	st := newMemStore(tracks[0], tracks[2])
	st.settings[keyQueue] = `["t0","t1","t2"]`
	st.settings[keyIndex] = "2"

	e := newTestEngine(t)
	cp := NewCheckpointer(e, st)

	resumed, err := cp.Restore()
	require.NoError(t, err)
	assert.True(t, resumed)

	snap := e.State()
	assert.Len(t, snap.Queue, 2)
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "t2", snap.CurrentTrack.ID)
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestCheckpointer_Restore_NothingSaved(t *testing.T) {
	st := newMemStore()
	e := newTestEngine(t)
	cp := NewCheckpointer(e, st)

	resumed, err := cp.Restore()
	require.NoError(t, err)
	assert.False(t, resumed)
}

func TestCheckpointer_Restore_AllTracksGone(t *testing.T) {
	st := newMemStore()
	st.settings[keyQueue] = `["t0","t1"]`

	e := newTestEngine(t)
	cp := NewCheckpointer(e, st)

	resumed, err := cp.Restore()
	require.NoError(t, err)
	assert.False(t, resumed)
}

func TestCheckpointer_Close_FlushesFinalState(t *testing.T) {
	st := newMemStore()
	e := newTestEngine(t)
	cp := NewCheckpointer(e, st)
	cp.Start()

	require.NoError(t, e.SetQueue(makeTracks(2), 0))
	assert.Eventually(t, func() bool {
		return st.setting(t, keyQueue) != ""
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, e.Seek(30*time.Second))
	// Let the seek snapshot reach the observer before closing.
	time.Sleep(50 * time.Millisecond)
	cp.Close()

	assert.Equal(t, "30000", st.setting(t, keyPosition))
}
