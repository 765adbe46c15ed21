// Package library turns user-supplied files and device-scanned filesystem
// entries into persisted tracks.
package library

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/domain/track"
	"github.com/pocketbox/pocketbox/internal/infra/audio"
	"github.com/pocketbox/pocketbox/internal/infra/store"
)

// Config holds acquisition configuration.
type Config struct {
	MediaDir     string        // Storage area for imported file bytes, addressed by track id
	MaxFileBytes int64         // Size ceiling for accepted files
	Extensions   []string      // Audio format allow-list (defaults to DefaultExtensions)
	ProbeTimeout time.Duration // Bound on duration resolution
}

// DefaultConfig returns the acquisition defaults.
func DefaultConfig(mediaDir string) Config {
	return Config{
		MediaDir:     mediaDir,
		MaxFileBytes: 50 << 20,
		Extensions:   DefaultExtensions,
		ProbeTimeout: 3 * time.Second,
	}
}

// Importer validates, persists, and catalogs audio files.
type Importer struct {
	cfg    Config
	store  store.TrackStore
	checks []Check
	ext    *extensionCheck

	// probe resolves a file's duration; swapped out in tests.
	probe func(ctx context.Context, path string) (time.Duration, error)
}

// NewImporter creates an importer writing accepted tracks to the store.
func NewImporter(cfg Config, st store.TrackStore) *Importer {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 50 << 20
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	return &Importer{
		cfg:    cfg,
		store:  st,
		checks: defaultChecks(cfg.Extensions, cfg.MaxFileBytes),
		ext:    newExtensionCheck(cfg.Extensions),
		probe:  audio.Probe,
	}
}

// ImportFile copies a user-supplied file into the managed media area and
// persists the resulting track. Validation failures
// (UnsupportedFormatError, FileTooLargeError) happen before any write.
func (im *Importer) ImportFile(ctx context.Context, path string) (track.Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to stat %q", path)
	}
	if err := im.validate(path, info); err != nil {
		return track.Track{}, err
	}

	id := uuid.New().String()
	dest := filepath.Join(im.cfg.MediaDir, id+filepath.Ext(path))
	if err := copyFile(path, dest); err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to persist media for %q", path)
	}

	t, err := im.buildTrack(ctx, id, path, dest, info)
	if err != nil {
		_ = os.Remove(dest)
		return track.Track{}, err
	}
	return t, nil
}

// Catalog registers a device-scanned file in place, without copying.
// Already-known locators are skipped; the second return reports whether a
// new track was created.
func (im *Importer) Catalog(ctx context.Context, path string) (track.Track, bool, error) {
	if existing, found, err := im.store.FindTrackByLocator(path); err != nil {
		return track.Track{}, false, err
	} else if found {
		return existing, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return track.Track{}, false, errors.Wrapf(err, "failed to stat %q", path)
	}
	if err := im.validate(path, info); err != nil {
		return track.Track{}, false, err
	}

	t, err := im.buildTrack(ctx, uuid.New().String(), path, path, info)
	if err != nil {
		return track.Track{}, false, err
	}
	return t, true, nil
}

func (im *Importer) validate(path string, info os.FileInfo) error {
	for _, c := range im.checks {
		if err := c.Check(path, info); err != nil {
			zlog.Debug().Msgf("library: %s check rejected %q: %v", c.Name(), path, err)
			return err
		}
	}
	return nil
}

// buildTrack assembles and persists the track record for an accepted file.
func (im *Importer) buildTrack(ctx context.Context, id, sourcePath, locator string, info os.FileInfo) (track.Track, error) {
	artist, title := ParseFilename(sourcePath)

	duration := im.resolveDuration(ctx, locator)

	t := track.Track{
		ID:       id,
		Title:    title,
		Artist:   artist,
		Duration: duration,
		Source:   track.SourceLocal,
		Locator:  locator,
		AddedAt:  time.Now(),
	}
	t.Normalize()

	if err := im.store.SaveTrack(t); err != nil {
		return track.Track{}, err
	}

	zlog.Info().Msgf("library: imported %q as %s (%s - %s, %d bytes)",
		sourcePath, id, t.Artist, t.Title, info.Size())
	return t, nil
}

// resolveDuration probes the media's duration within the configured bound.
// Timeouts and decode failures resolve to unknown rather than failing the
// import.
func (im *Importer) resolveDuration(ctx context.Context, path string) time.Duration {
	ctx, cancel := context.WithTimeout(ctx, im.cfg.ProbeTimeout)
	defer cancel()

	d, err := im.probe(ctx, path)
	if err != nil {
		zlog.Debug().Msgf("library: duration probe failed for %q, treating as unknown: %v", path, err)
		return 0
	}
	return d
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}
