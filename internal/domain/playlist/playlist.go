// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// ErrDuplicateTrack is returned when a track id is already in the playlist.
var ErrDuplicateTrack = errors.New("track already in playlist")

// Playlist represents an ordered, duplicate-free collection of track ids.
type Playlist struct {
	ID          string    // Unique playlist id
	Name        string    // Playlist name
	Description string    // Playlist description (optional)
	TrackIDs    []string  // Ordered track ids, no duplicates
	CoverArtURL string    // Cover art (optional)
	CreatedAt   time.Time // Creation time
	UpdatedAt   time.Time // Last modification time
}

// Contains checks if a track id is in the playlist.
func (p *Playlist) Contains(trackID string) bool {
	for _, id := range p.TrackIDs {
		if id == trackID {
			return true
		}
	}
	return false
}

// AddTrack appends a track id, rejecting duplicates.
func (p *Playlist) AddTrack(trackID string) error {
	if p.Contains(trackID) {
		return ErrDuplicateTrack
	}
	p.TrackIDs = append(p.TrackIDs, trackID)
	p.UpdatedAt = time.Now()
	return nil
}

// RemoveTrack removes a track id. Returns true if it was present.
func (p *Playlist) RemoveTrack(trackID string) bool {
	for i, id := range p.TrackIDs {
		if id == trackID {
			p.TrackIDs = append(p.TrackIDs[:i], p.TrackIDs[i+1:]...)
			p.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Materialize resolves track ids into tracks using the given lookup.
// Dangling ids (lookup returns false) are skipped, preserving order.
func (p *Playlist) Materialize(lookup func(id string) (track.Track, bool)) []track.Track {
	tracks := make([]track.Track, 0, len(p.TrackIDs))
	for _, id := range p.TrackIDs {
		if t, ok := lookup(id); ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// TotalDuration returns the summed duration of all resolvable tracks.
func (p *Playlist) TotalDuration(lookup func(id string) (track.Track, bool)) time.Duration {
	var total time.Duration
	for _, t := range p.Materialize(lookup) {
		total += t.Duration
	}
	return total
}
