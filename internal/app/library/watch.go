package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

// Watcher catalogs audio files as they appear in the music directories,
// keeping the library current between full scans.
type Watcher struct {
	watcher  *fsnotify.Watcher
	importer *Importer
	deny     map[string]bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher over the scan configuration's roots.
func NewWatcher(cfg ScanConfig, importer *Importer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filesystem watcher")
	}

	deny := cfg.DenyDirs
	if len(deny) == 0 {
		deny = DefaultDenyDirs
	}
	denySet := make(map[string]bool, len(deny))
	for _, d := range deny {
		denySet[strings.ToLower(d)] = true
	}

	w := &Watcher{
		watcher:  fsw,
		importer: importer,
		deny:     denySet,
		done:     make(chan struct{}),
	}

	for _, root := range cfg.Dirs {
		if err := w.addRecursive(root); err != nil {
			zlog.Debug().Msgf("library: not watching %q: %v", root, err)
		}
	}

	return w, nil
}

// addRecursive registers a directory tree with the watcher; fsnotify
// watches single directories only.
func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return errors.Newf("%q is not a watchable directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.deny[strings.ToLower(d.Name())] {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			zlog.Debug().Msgf("library: failed to watch %q: %v", path, err)
		}
		return nil
	})
}

// Start begins event processing. It returns immediately.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(ctx, event)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				zlog.Warn().Msgf("library: watcher error: %v", err)
			}
		}
	}()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if !w.deny[strings.ToLower(filepath.Base(event.Name))] {
			_ = w.addRecursive(event.Name)
		}
		return
	}

	if !w.importer.ext.allows(event.Name) {
		return
	}

	if _, created, err := w.importer.Catalog(ctx, event.Name); err != nil {
		zlog.Debug().Msgf("library: watcher rejected %q: %v", event.Name, err)
	} else if created {
		zlog.Info().Msgf("library: cataloged new file %q", event.Name)
	}
}

// Close stops event processing and releases the watcher.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return err
}
