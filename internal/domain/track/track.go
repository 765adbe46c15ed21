// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Display sentinels used when metadata is absent.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Source identifies which class of audio backend may play a track.
type Source string

const (
	SourceLocal  Source = "local"  // File on device storage (path or managed media blob)
	SourceStream Source = "stream" // HTTP(S) URL, played by a direct-URL backend
)

// RemoteIDPrefix namespaces ids of tracks originating from the remote catalog
// so they never collide with locally generated ids.
const RemoteIDPrefix = "remote-"

// Track represents a playable audio track.
type Track struct {
	ID         string        // Stable unique id (UUID for local files, remote-<id> for catalog results)
	Title      string        // Track title
	Artist     string        // Artist name
	Album      string        // Album name
	Duration   time.Duration // Track duration (0 = unknown, resolved at load time)
	Source     Source        // Determines backend selection
	Locator    string        // Backend-addressable location: filesystem path or HTTP(S) URL
	ArtworkURL string        // Album/cover art URL (optional)
	Liked      bool          // User favourite flag
	AddedAt    time.Time     // Time the track entered the library
}

// Normalize fills absent display fields with their sentinels and
// clamps a negative duration to unknown.
func (t *Track) Normalize() {
	if strings.TrimSpace(t.Title) == "" {
		t.Title = UnknownTitle
	}
	if strings.TrimSpace(t.Artist) == "" {
		t.Artist = UnknownArtist
	}
	if strings.TrimSpace(t.Album) == "" {
		t.Album = UnknownAlbum
	}
	if t.Duration < 0 {
		t.Duration = 0
	}
}

// IsLocal returns true if the track plays from device storage.
func (t *Track) IsLocal() bool {
	return t.Source == SourceLocal
}

// IsStream returns true if the track plays from a remote URL.
func (t *Track) IsStream() bool {
	return t.Source == SourceStream
}

// IsRemote returns true if the track originated from the remote catalog.
func (t *Track) IsRemote() bool {
	return strings.HasPrefix(t.ID, RemoteIDPrefix)
}

// HasKnownDuration returns true once the duration has been resolved.
func (t *Track) HasKnownDuration() bool {
	return t.Duration > 0
}
