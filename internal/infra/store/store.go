// Package store provides durable persistence for tracks, playlists, and
// app settings, backed by SQLite.
package store

import (
	"github.com/cockroachdb/errors"

	"github.com/pocketbox/pocketbox/internal/domain/playlist"
	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// Errors
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStorage marks all read/write failures surfaced by the store.
	// Callers check it with errors.Is; the store never retries.
	ErrStorage = errors.New("storage failure")
)

// storageErr tags an underlying database error as a storage failure.
func storageErr(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrStorage)
}

// Store is the persistence interface consumed by the rest of the app.
// All mutations are whole-record, last-write-wins.
type Store interface {
	TrackStore
	PlaylistStore
	SettingsStore

	Close() error
}

// TrackStore persists tracks.
type TrackStore interface {
	GetAllTracks() ([]track.Track, error)
	GetTrack(id string) (track.Track, error)
	// FindTrackByLocator resolves a track by its locator; used by the
	// library scanner to avoid re-importing known files.
	FindTrackByLocator(locator string) (track.Track, bool, error)
	SaveTrack(t track.Track) error
	SaveTracks(ts []track.Track) error
	RemoveTrack(id string) error
}

// PlaylistStore persists playlists and their track membership.
type PlaylistStore interface {
	GetAllPlaylists() ([]playlist.Playlist, error)
	GetPlaylist(id string) (playlist.Playlist, error)
	CreatePlaylist(name, description string) (playlist.Playlist, error)
	DeletePlaylist(id string) error
	AddTrackToPlaylist(playlistID, trackID string) error
	RemoveTrackFromPlaylist(playlistID, trackID string) error
	UpdatePlaylistDetails(id, name, description, coverArtURL string) error
}

// SettingsStore is a plain key/value layer for app settings and
// resume-on-launch checkpoints.
type SettingsStore interface {
	SetSetting(key, value string) error
	// GetSetting returns the stored value, or "" with no error when the
	// key has never been set.
	GetSetting(key string) (string, error)
}
