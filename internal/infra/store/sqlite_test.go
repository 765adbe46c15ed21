package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketbox/pocketbox/internal/domain/playlist"
	"github.com/pocketbox/pocketbox/internal/domain/track"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pocketbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTrack(id string) track.Track {
	return track.Track{
		ID:       id,
		Title:    "Title " + id,
		Artist:   "Artist",
		Album:    "Album",
		Duration: 3 * time.Minute,
		Source:   track.SourceLocal,
		Locator:  "/music/" + id + ".mp3",
		AddedAt:  time.Now().Truncate(time.Second),
	}
}

func TestSQLiteStore_TrackRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := sampleTrack("t1")
	in.Liked = true
	require.NoError(t, s.SaveTrack(in))

	out, err := s.GetTrack("t1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Duration, out.Duration)
	assert.Equal(t, in.Source, out.Source)
	assert.Equal(t, in.Locator, out.Locator)
	assert.True(t, out.Liked)
}

func TestSQLiteStore_SaveTrack_Replaces(t *testing.T) {
	s := openTestStore(t)

	in := sampleTrack("t1")
	require.NoError(t, s.SaveTrack(in))

	in.Title = "Renamed"
	require.NoError(t, s.SaveTrack(in))

	out, err := s.GetTrack("t1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", out.Title)

	all, err := s.GetAllTracks()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_GetTrack_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetTrack("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SaveTrack_RequiresID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.SaveTrack(track.Track{Title: "no id"}))
}

func TestSQLiteStore_FindTrackByLocator(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveTrack(sampleTrack("t1")))

	_, found, err := s.FindTrackByLocator("/music/t1.mp3")
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = s.FindTrackByLocator("/music/unknown.mp3")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStore_SaveTracks_And_RemoveTrack(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveTracks([]track.Track{sampleTrack("t1"), sampleTrack("t2"), sampleTrack("t3")}))

	all, err := s.GetAllTracks()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.RemoveTrack("t2"))
	_, err = s.GetTrack("t2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_PlaylistLifecycle(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveTracks([]track.Track{sampleTrack("t1"), sampleTrack("t2"), sampleTrack("t3")}))

	pl, err := s.CreatePlaylist("Road trip", "long drives")
	require.NoError(t, err)
	require.NotEmpty(t, pl.ID)

	require.NoError(t, s.AddTrackToPlaylist(pl.ID, "t1"))
	require.NoError(t, s.AddTrackToPlaylist(pl.ID, "t2"))
	require.NoError(t, s.AddTrackToPlaylist(pl.ID, "t3"))

	got, err := s.GetPlaylist(pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, got.TrackIDs)

	// Duplicate membership is rejected.
	assert.ErrorIs(t, s.AddTrackToPlaylist(pl.ID, "t2"), playlist.ErrDuplicateTrack)

	require.NoError(t, s.RemoveTrackFromPlaylist(pl.ID, "t2"))
	got, err = s.GetPlaylist(pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3"}, got.TrackIDs)

	// Ordering survives removal: a new track lands at the end.
	require.NoError(t, s.AddTrackToPlaylist(pl.ID, "t2"))
	got, err = s.GetPlaylist(pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3", "t2"}, got.TrackIDs)

	require.NoError(t, s.DeletePlaylist(pl.ID))
	_, err = s.GetPlaylist(pl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_UpdatePlaylistDetails(t *testing.T) {
	s := openTestStore(t)

	pl, err := s.CreatePlaylist("Old name", "")
	require.NoError(t, err)

	require.NoError(t, s.UpdatePlaylistDetails(pl.ID, "New name", "fresh", "https://img.example.com/c.png"))

	got, err := s.GetPlaylist(pl.ID)
	require.NoError(t, err)
	assert.Equal(t, "New name", got.Name)
	assert.Equal(t, "fresh", got.Description)
	assert.Equal(t, "https://img.example.com/c.png", got.CoverArtURL)

	assert.ErrorIs(t, s.UpdatePlaylistDetails("missing", "x", "", ""), ErrNotFound)
}

func TestSQLiteStore_Settings(t *testing.T) {
	s := openTestStore(t)

	v, err := s.GetSetting("theme")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetSetting("theme", "dark"))
	require.NoError(t, s.SetSetting("theme", "light"))

	v, err = s.GetSetting("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestSQLiteStore_RemoveTrack_CleansPlaylists(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveTracks([]track.Track{sampleTrack("t1"), sampleTrack("t2")}))
	pl, err := s.CreatePlaylist("mix", "")
	require.NoError(t, err)
	require.NoError(t, s.AddTrackToPlaylist(pl.ID, "t1"))
	require.NoError(t, s.AddTrackToPlaylist(pl.ID, "t2"))

	require.NoError(t, s.RemoveTrack("t1"))

	got, err := s.GetPlaylist(pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, got.TrackIDs)
}
