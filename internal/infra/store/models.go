package store

import (
	"time"

	"github.com/pocketbox/pocketbox/internal/domain/playlist"
	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// trackRecord is the persisted form of a track.
type trackRecord struct {
	ID         string `gorm:"primaryKey"`
	Title      string
	Artist     string
	Album      string
	DurationMs int64
	Source     string
	Locator    string `gorm:"index"`
	ArtworkURL string
	Liked      bool
	AddedAt    time.Time
}

func (trackRecord) TableName() string { return "tracks" }

func toTrackRecord(t track.Track) trackRecord {
	return trackRecord{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		DurationMs: t.Duration.Milliseconds(),
		Source:     string(t.Source),
		Locator:    t.Locator,
		ArtworkURL: t.ArtworkURL,
		Liked:      t.Liked,
		AddedAt:    t.AddedAt,
	}
}

func (r trackRecord) toDomain() track.Track {
	return track.Track{
		ID:         r.ID,
		Title:      r.Title,
		Artist:     r.Artist,
		Album:      r.Album,
		Duration:   time.Duration(r.DurationMs) * time.Millisecond,
		Source:     track.Source(r.Source),
		Locator:    r.Locator,
		ArtworkURL: r.ArtworkURL,
		Liked:      r.Liked,
		AddedAt:    r.AddedAt,
	}
}

// playlistRecord is the persisted form of a playlist's metadata.
type playlistRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Description string
	CoverArtURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (playlistRecord) TableName() string { return "playlists" }

func (r playlistRecord) toDomain(trackIDs []string) playlist.Playlist {
	return playlist.Playlist{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CoverArtURL: r.CoverArtURL,
		TrackIDs:    trackIDs,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// playlistTrackRecord is the ordered playlist membership join.
type playlistTrackRecord struct {
	PlaylistID string `gorm:"primaryKey"`
	TrackID    string `gorm:"primaryKey"`
	Position   int    `gorm:"index"`
}

func (playlistTrackRecord) TableName() string { return "playlist_tracks" }

// settingRecord is one key/value setting.
type settingRecord struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (settingRecord) TableName() string { return "settings" }
