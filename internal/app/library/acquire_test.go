package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// mockTrackStore records saves, backing them with an in-memory map.
type mockTrackStore struct {
	tracks    map[string]track.Track
	saveCalls int
}

func newMockTrackStore() *mockTrackStore {
	return &mockTrackStore{tracks: make(map[string]track.Track)}
}

func (m *mockTrackStore) GetAllTracks() ([]track.Track, error) {
	out := make([]track.Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTrackStore) GetTrack(id string) (track.Track, error) {
	t, ok := m.tracks[id]
	if !ok {
		return track.Track{}, errors.New("not found")
	}
	return t, nil
}

func (m *mockTrackStore) FindTrackByLocator(locator string) (track.Track, bool, error) {
	for _, t := range m.tracks {
		if t.Locator == locator {
			return t, true, nil
		}
	}
	return track.Track{}, false, nil
}

func (m *mockTrackStore) SaveTrack(t track.Track) error {
	m.saveCalls++
	m.tracks[t.ID] = t
	return nil
}

func (m *mockTrackStore) SaveTracks(ts []track.Track) error {
	for _, t := range ts {
		if err := m.SaveTrack(t); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockTrackStore) RemoveTrack(id string) error {
	delete(m.tracks, id)
	return nil
}

func newTestImporter(t *testing.T, st *mockTrackStore) *Importer {
	t.Helper()
	im := NewImporter(DefaultConfig(filepath.Join(t.TempDir(), "media")), st)
	im.probe = func(context.Context, string) (time.Duration, error) {
		return 3 * time.Minute, nil
	}
	return im
}

func writeFile(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o644))
	if size > 0 {
		require.NoError(t, os.Truncate(path, size))
	}
	return path
}

func TestImporter_ImportFile(t *testing.T) {
	st := newMockTrackStore()
	im := newTestImporter(t, st)

	src := writeFile(t, t.TempDir(), "Daft Punk - One More Time.mp3", 0)

	got, err := im.ImportFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "Daft Punk", got.Artist)
	assert.Equal(t, "One More Time", got.Title)
	assert.Equal(t, track.SourceLocal, got.Source)
	assert.Equal(t, 3*time.Minute, got.Duration)
	assert.NotEmpty(t, got.ID)

	// Bytes are persisted into the media area, addressed by the id.
	assert.Contains(t, got.Locator, got.ID)
	_, statErr := os.Stat(got.Locator)
	assert.NoError(t, statErr)

	saved, err := st.GetTrack(got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Locator, saved.Locator)
}

func TestImporter_RejectsOversizedFile(t *testing.T) {
	st := newMockTrackStore()
	im := newTestImporter(t, st)

	src := writeFile(t, t.TempDir(), "huge-set.mp3", 60<<20)

	_, err := im.ImportFile(context.Background(), src)

	var tooLarge *FileTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(60<<20), tooLarge.Size)
	assert.Equal(t, int64(50<<20), tooLarge.Limit)
	assert.Zero(t, st.saveCalls, "a rejected file must never reach the store")
}

func TestImporter_RejectsUnsupportedFormat(t *testing.T) {
	st := newMockTrackStore()
	im := newTestImporter(t, st)

	src := writeFile(t, t.TempDir(), "document.pdf", 0)

	_, err := im.ImportFile(context.Background(), src)

	var unsupported *UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "pdf", unsupported.Extension)
	assert.Zero(t, st.saveCalls)
}

func TestImporter_ProbeFailureMeansUnknownDuration(t *testing.T) {
	st := newMockTrackStore()
	im := newTestImporter(t, st)
	im.probe = func(context.Context, string) (time.Duration, error) {
		return 0, errors.New("decode failed")
	}

	src := writeFile(t, t.TempDir(), "broken.mp3", 0)

	got, err := im.ImportFile(context.Background(), src)
	require.NoError(t, err, "an unresolvable duration is not fatal")
	assert.Equal(t, time.Duration(0), got.Duration)
	assert.False(t, got.HasKnownDuration())
}

func TestImporter_Catalog_DeduplicatesByLocator(t *testing.T) {
	st := newMockTrackStore()
	im := newTestImporter(t, st)

	src := writeFile(t, t.TempDir(), "03. Nightcall.mp3", 0)

	first, created, err := im.Catalog(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, src, first.Locator, "cataloged files stay in place")
	assert.Equal(t, "Nightcall", first.Title)
	assert.Equal(t, track.UnknownArtist, first.Artist)

	second, created, err := im.Catalog(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, created, "known locators are never re-imported")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, st.saveCalls)
}
