package store

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pocketbox/pocketbox/internal/domain/playlist"
	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db *gorm.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if necessary) the database at path and migrates
// the schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, storageErr(err, "failed to open database")
	}

	if err := db.AutoMigrate(
		&trackRecord{},
		&playlistRecord{},
		&playlistTrackRecord{},
		&settingRecord{},
	); err != nil {
		return nil, storageErr(err, "failed to migrate schema")
	}

	zlog.Debug().Msgf("store: opened database at %s", path)
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageErr(err, "failed to access underlying connection")
	}
	return sqlDB.Close()
}

// GetAllTracks returns every track, newest first.
func (s *SQLiteStore) GetAllTracks() ([]track.Track, error) {
	var records []trackRecord
	if err := s.db.Order("added_at DESC").Find(&records).Error; err != nil {
		return nil, storageErr(err, "failed to list tracks")
	}

	tracks := make([]track.Track, len(records))
	for i, r := range records {
		tracks[i] = r.toDomain()
	}
	return tracks, nil
}

// GetTrack returns the track with the given id.
func (s *SQLiteStore) GetTrack(id string) (track.Track, error) {
	var r trackRecord
	err := s.db.First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return track.Track{}, errors.Wrapf(ErrNotFound, "track %s", id)
	}
	if err != nil {
		return track.Track{}, storageErr(err, "failed to load track")
	}
	return r.toDomain(), nil
}

// FindTrackByLocator resolves a track by its locator.
func (s *SQLiteStore) FindTrackByLocator(locator string) (track.Track, bool, error) {
	var r trackRecord
	err := s.db.First(&r, "locator = ?", locator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return track.Track{}, false, nil
	}
	if err != nil {
		return track.Track{}, false, storageErr(err, "failed to look up locator")
	}
	return r.toDomain(), true, nil
}

// SaveTrack inserts or replaces a track record.
func (s *SQLiteStore) SaveTrack(t track.Track) error {
	if t.ID == "" {
		return errors.New("track id is required")
	}
	if err := s.db.Save(toTrackRecord(t)).Error; err != nil {
		return storageErr(err, "failed to save track")
	}
	return nil
}

// SaveTracks inserts or replaces multiple tracks in one transaction.
func (s *SQLiteStore) SaveTracks(ts []track.Track) error {
	if len(ts) == 0 {
		return nil
	}
	records := make([]trackRecord, len(ts))
	for i, t := range ts {
		if t.ID == "" {
			return errors.Newf("track at index %d has no id", i)
		}
		records[i] = toTrackRecord(t)
	}
	if err := s.db.Save(&records).Error; err != nil {
		return storageErr(err, "failed to save tracks")
	}
	return nil
}

// RemoveTrack deletes a track and its playlist memberships.
func (s *SQLiteStore) RemoveTrack(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&playlistTrackRecord{}, "track_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&trackRecord{}, "id = ?", id).Error
	})
	if err != nil {
		return storageErr(err, "failed to remove track")
	}
	return nil
}

// GetAllPlaylists returns every playlist with its ordered track ids.
func (s *SQLiteStore) GetAllPlaylists() ([]playlist.Playlist, error) {
	var records []playlistRecord
	if err := s.db.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, storageErr(err, "failed to list playlists")
	}

	playlists := make([]playlist.Playlist, len(records))
	for i, r := range records {
		ids, err := s.playlistTrackIDs(r.ID)
		if err != nil {
			return nil, err
		}
		playlists[i] = r.toDomain(ids)
	}
	return playlists, nil
}

// GetPlaylist returns the playlist with the given id.
func (s *SQLiteStore) GetPlaylist(id string) (playlist.Playlist, error) {
	var r playlistRecord
	err := s.db.First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return playlist.Playlist{}, errors.Wrapf(ErrNotFound, "playlist %s", id)
	}
	if err != nil {
		return playlist.Playlist{}, storageErr(err, "failed to load playlist")
	}

	ids, err := s.playlistTrackIDs(id)
	if err != nil {
		return playlist.Playlist{}, err
	}
	return r.toDomain(ids), nil
}

func (s *SQLiteStore) playlistTrackIDs(playlistID string) ([]string, error) {
	var joins []playlistTrackRecord
	if err := s.db.Order("position ASC").Find(&joins, "playlist_id = ?", playlistID).Error; err != nil {
		return nil, storageErr(err, "failed to load playlist tracks")
	}
	ids := make([]string, len(joins))
	for i, j := range joins {
		ids[i] = j.TrackID
	}
	return ids, nil
}

// CreatePlaylist creates an empty playlist.
func (s *SQLiteStore) CreatePlaylist(name, description string) (playlist.Playlist, error) {
	now := time.Now()
	r := playlistRecord{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Create(&r).Error; err != nil {
		return playlist.Playlist{}, storageErr(err, "failed to create playlist")
	}
	return r.toDomain(nil), nil
}

// DeletePlaylist removes a playlist and its memberships.
func (s *SQLiteStore) DeletePlaylist(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&playlistTrackRecord{}, "playlist_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&playlistRecord{}, "id = ?", id).Error
	})
	if err != nil {
		return storageErr(err, "failed to delete playlist")
	}
	return nil
}

// AddTrackToPlaylist appends a track to a playlist. Duplicates are rejected.
func (s *SQLiteStore) AddTrackToPlaylist(playlistID, trackID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&playlistTrackRecord{}).
			Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
			Count(&count).Error; err != nil {
			return storageErr(err, "failed to check playlist membership")
		}
		if count > 0 {
			return playlist.ErrDuplicateTrack
		}

		var maxPos int
		row := tx.Model(&playlistTrackRecord{}).
			Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(position), -1)").Row()
		if err := row.Scan(&maxPos); err != nil {
			return storageErr(err, "failed to resolve playlist position")
		}

		if err := tx.Create(&playlistTrackRecord{
			PlaylistID: playlistID,
			TrackID:    trackID,
			Position:   maxPos + 1,
		}).Error; err != nil {
			return storageErr(err, "failed to add playlist track")
		}
		return s.touchPlaylist(tx, playlistID)
	})
}

// RemoveTrackFromPlaylist removes a track from a playlist.
func (s *SQLiteStore) RemoveTrackFromPlaylist(playlistID, trackID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&playlistTrackRecord{}, "playlist_id = ? AND track_id = ?", playlistID, trackID)
		if res.Error != nil {
			return storageErr(res.Error, "failed to remove playlist track")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return s.touchPlaylist(tx, playlistID)
	})
}

// UpdatePlaylistDetails replaces a playlist's display fields.
func (s *SQLiteStore) UpdatePlaylistDetails(id, name, description, coverArtURL string) error {
	res := s.db.Model(&playlistRecord{}).Where("id = ?", id).Updates(map[string]any{
		"name":          name,
		"description":   description,
		"cover_art_url": coverArtURL,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return storageErr(res.Error, "failed to update playlist")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "playlist %s", id)
	}
	return nil
}

func (s *SQLiteStore) touchPlaylist(tx *gorm.DB, id string) error {
	if err := tx.Model(&playlistRecord{}).Where("id = ?", id).
		Update("updated_at", time.Now()).Error; err != nil {
		return storageErr(err, "failed to touch playlist")
	}
	return nil
}

// SetSetting stores a key/value setting, replacing any previous value.
func (s *SQLiteStore) SetSetting(key, value string) error {
	if err := s.db.Save(&settingRecord{Key: key, Value: value}).Error; err != nil {
		return storageErr(err, "failed to save setting")
	}
	return nil
}

// GetSetting returns the stored value, "" when the key is unset.
func (s *SQLiteStore) GetSetting(key string) (string, error) {
	var r settingRecord
	err := s.db.First(&r, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", storageErr(err, "failed to load setting")
	}
	return r.Value, nil
}
