package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// DefaultDenyDirs lists directory names skipped during device scans.
var DefaultDenyDirs = []string{
	"cache", ".cache", "tmp", "temp", "system", "photos",
	"thumbnails", ".thumbnails", ".trash", "lost+found", "node_modules",
}

// DefaultMusicDirs returns the well-known music-adjacent directories under
// the user's home.
func DefaultMusicDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, "Music"),
		filepath.Join(home, "Downloads"),
		filepath.Join(home, "Documents", "Audio"),
	}
}

// ScanConfig holds device-scan configuration.
type ScanConfig struct {
	Dirs     []string // Roots to walk recursively
	DenyDirs []string // Directory names to skip (defaults to DefaultDenyDirs)
}

// ScanResult summarises one scan pass.
type ScanResult struct {
	Imported int // New tracks cataloged
	Known    int // Files already present in the store
	Rejected int // Files failing validation
}

// Scanner walks the configured music directories and catalogs audio files
// not yet known to the store.
type Scanner struct {
	cfg      ScanConfig
	importer *Importer
	deny     map[string]bool
}

// NewScanner creates a scanner cataloging through the given importer.
func NewScanner(cfg ScanConfig, importer *Importer) *Scanner {
	deny := cfg.DenyDirs
	if len(deny) == 0 {
		deny = DefaultDenyDirs
	}
	denySet := make(map[string]bool, len(deny))
	for _, d := range deny {
		denySet[strings.ToLower(d)] = true
	}
	return &Scanner{cfg: cfg, importer: importer, deny: denySet}
}

// Scan walks every configured root. Missing roots are skipped silently;
// validation rejections are counted, not fatal.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult

	for _, root := range lo.Uniq(s.cfg.Dirs) {
		if _, err := os.Stat(root); err != nil {
			zlog.Debug().Msgf("library: scan root %q unavailable, skipping", root)
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				zlog.Warn().Msgf("library: scan error at %q: %v", path, err)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if path != root && s.deny[strings.ToLower(d.Name())] {
					return filepath.SkipDir
				}
				return nil
			}
			if !s.importer.ext.allows(path) {
				return nil
			}

			_, created, err := s.importer.Catalog(ctx, path)
			switch {
			case err != nil:
				zlog.Debug().Msgf("library: scan rejected %q: %v", path, err)
				result.Rejected++
			case created:
				result.Imported++
			default:
				result.Known++
			}
			return nil
		})
		if err != nil {
			return result, errors.Wrapf(err, "scan of %q aborted", root)
		}
	}

	zlog.Info().Msgf("library: scan complete: imported=%d known=%d rejected=%d",
		result.Imported, result.Known, result.Rejected)
	return result, nil
}
