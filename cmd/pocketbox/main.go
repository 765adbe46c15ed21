// Package main provides the pocketbox entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/app/library"
	"github.com/pocketbox/pocketbox/internal/app/player"
	"github.com/pocketbox/pocketbox/internal/app/session"
	"github.com/pocketbox/pocketbox/internal/infra/audio"
	"github.com/pocketbox/pocketbox/internal/infra/catalog"
	"github.com/pocketbox/pocketbox/internal/infra/config"
	"github.com/pocketbox/pocketbox/internal/infra/logger"
	"github.com/pocketbox/pocketbox/internal/infra/store"
)

var (
	app        = kingpin.New("pocketbox", "pocketbox music player")
	configPath = app.Flag("config", "Path to config file").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: console)").String()

	// scan command
	scanCmd  = app.Command("scan", "Scan music directories and catalog audio files")
	scanDirs = scanCmd.Arg("dirs", "Directories to scan (default: well-known music dirs)").Strings()

	// import command
	importCmd   = app.Command("import", "Import audio files into the managed library")
	importFiles = importCmd.Arg("files", "Audio files to import").Required().Strings()

	// search command
	searchCmd   = app.Command("search", "Search the remote catalog")
	searchQuery = searchCmd.Arg("query", "Search query").Required().Strings()
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	var runErr error
	switch command {
	case scanCmd.FullCommand():
		runErr = runScan(cfg, *scanDirs)
	case importCmd.FullCommand():
		runErr = runImport(cfg, *importFiles)
	case searchCmd.FullCommand():
		runErr = runSearch(cfg, joinWords(*searchQuery))
	default:
		runErr = runPlayer(cfg)
	}
	if runErr != nil {
		zlog.Error().Msgf("pocketbox error: %v", runErr)
		os.Exit(1)
	}
}

// loadConfig reads the configured file, falling back to built-in defaults
// when no config file exists.
func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}
	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, ".pocketbox", "config.yaml")
		if _, statErr := os.Stat(path); statErr == nil {
			return config.Load(path)
		}
	}
	return config.Default()
}

// openStore opens the SQLite store, creating the parent directory on
// first launch.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.DBPath), 0o755); err != nil {
		return nil, err
	}
	return store.Open(cfg.Store.DBPath)
}

func newImporter(cfg *config.Config, st store.TrackStore) (*library.Importer, error) {
	if err := os.MkdirAll(cfg.Library.MediaDir, 0o755); err != nil {
		return nil, err
	}
	libCfg := library.Config{
		MediaDir:     cfg.Library.MediaDir,
		MaxFileBytes: cfg.MaxFileBytes(),
		Extensions:   cfg.Library.Extensions,
		ProbeTimeout: cfg.ProbeTimeout(),
	}
	return library.NewImporter(libCfg, st), nil
}

// runPlayer executes the main player loop. Using a separate function
// ensures defer statements run even when returning with an error.
func runPlayer(cfg *config.Config) error {
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	importer, err := newImporter(cfg, st)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial scan runs in the background so launch is not gated on
	// walking the music directories.
	scanCfg := library.ScanConfig{
		Dirs:     musicDirs(cfg),
		DenyDirs: cfg.Library.DenyDirs,
	}
	scanner := library.NewScanner(scanCfg, importer)
	go func() {
		result, err := scanner.Scan(ctx)
		if err != nil {
			zlog.Warn().Msgf("Initial scan failed: %v", err)
			return
		}
		zlog.Info().Msgf("Initial scan done: imported=%d known=%d rejected=%d",
			result.Imported, result.Known, result.Rejected)
	}()

	var watcher *library.Watcher
	if cfg.Library.Watch {
		watcher, err = library.NewWatcher(scanCfg, importer)
		if err != nil {
			zlog.Warn().Msgf("File watcher unavailable: %v", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Close()
		}
	}

	// Playback engine with the ordered backend chain
	selector := player.NewSelector(
		audio.NewNativeBackend(),
		audio.NewBlobBackend(nil),
		audio.NewStreamBackend(nil),
	)
	engine := player.New(player.Config{
		PreviousThreshold: cfg.PreviousThreshold(),
		ProgressInterval:  cfg.ProgressInterval(),
		InitialVolume:     cfg.Player.Volume,
	}, selector)
	defer engine.Close()

	// Resume where the last session left off
	checkpointer := session.NewCheckpointer(engine, st)
	if resumed, err := checkpointer.Restore(); err != nil {
		zlog.Warn().Msgf("Failed to restore playback state: %v", err)
	} else if resumed {
		snap := engine.State()
		if snap.CurrentTrack != nil {
			zlog.Info().Msgf("Resumed at %q (%v)", snap.CurrentTrack.Title, snap.Position)
		}
	}
	checkpointer.Start()
	defer checkpointer.Close()

	zlog.Info().Msgf("pocketbox started: library=%s db=%s", cfg.Library.MediaDir, cfg.Store.DBPath)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zlog.Info().Msg("Received shutdown signal...")
	if err := engine.Pause(); err != nil {
		zlog.Debug().Msgf("Pause on shutdown: %v", err)
	}
	return nil
}

// runScan catalogs audio files under the given directories in place.
func runScan(cfg *config.Config, dirs []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	importer, err := newImporter(cfg, st)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	if len(dirs) == 0 {
		dirs = musicDirs(cfg)
	}
	scanner := library.NewScanner(library.ScanConfig{
		Dirs:     dirs,
		DenyDirs: cfg.Library.DenyDirs,
	}, importer)

	start := time.Now()
	result, err := scanner.Scan(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Scan finished in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  imported: %d\n  known:    %d\n  rejected: %d\n",
		result.Imported, result.Known, result.Rejected)
	return nil
}

// runImport copies the given files into the managed media area.
func runImport(cfg *config.Config, files []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	importer, err := newImporter(cfg, st)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	ctx := context.Background()
	failed := 0
	for _, path := range files {
		t, err := importer.ImportFile(ctx, path)
		if err != nil {
			fmt.Printf("SKIP %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("OK   %s - %s (%v)\n", t.Artist, t.Title, t.Duration.Round(time.Second))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files not imported", failed, len(files))
	}
	return nil
}

// runSearch queries the remote catalog and prints the results.
func runSearch(cfg *config.Config, query string) error {
	source, err := catalog.NewSource(catalog.ProviderConfig{
		Type:     cfg.Catalog.Provider.Type,
		Settings: cfg.Catalog.Provider.Settings,
	})
	if err != nil {
		return fmt.Errorf("failed to create catalog source: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tracks, err := source.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, t := range tracks {
		fmt.Printf("%2d. %s - %s", i+1, t.Artist, t.Title)
		if t.HasKnownDuration() {
			fmt.Printf(" (%v)", t.Duration.Round(time.Second))
		}
		fmt.Println()
	}
	return nil
}

func musicDirs(cfg *config.Config) []string {
	if len(cfg.Library.MusicDirs) > 0 {
		return cfg.Library.MusicDirs
	}
	return library.DefaultMusicDirs()
}

func joinWords(words []string) string {
	return strings.Join(words, " ")
}
