// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player  PlayerConfig  `yaml:"player"`
	Library LibraryConfig `yaml:"library"`
	Store   StoreConfig   `yaml:"store"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
}

// PlayerConfig represents playback engine configuration.
type PlayerConfig struct {
	PreviousThresholdMs int     `yaml:"previous_threshold_ms" default:"3000" validate:"gte=0,lte=30000"`
	ProgressIntervalMs  int     `yaml:"progress_interval_ms" default:"500" validate:"gte=50,lte=5000"`
	Volume              float64 `yaml:"volume" default:"1.0" validate:"gte=0,lte=1"`
}

// LibraryConfig represents local file acquisition configuration.
type LibraryConfig struct {
	MediaDir       string   `yaml:"media_dir"`
	MaxFileMB      int      `yaml:"max_file_mb" default:"50" validate:"gt=0"`
	Extensions     []string `yaml:"extensions"`
	MusicDirs      []string `yaml:"music_dirs"`
	DenyDirs       []string `yaml:"deny_dirs"`
	ProbeTimeoutMs int      `yaml:"probe_timeout_ms" default:"3000" validate:"gt=0"`
	Watch          bool     `yaml:"watch" default:"true"`
}

// StoreConfig represents persistence configuration.
type StoreConfig struct {
	DBPath string `yaml:"db_path"`
}

// CatalogConfig represents remote catalog configuration.
type CatalogConfig struct {
	Provider ProviderConfig `yaml:"provider"`
}

// ProviderConfig represents a single catalog provider configuration.
type ProviderConfig struct {
	Type     string         `yaml:"type" default:"preview"`
	Settings map[string]any `yaml:"settings"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Output string `yaml:"output" default:"console" validate:"oneof=console file"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.applyDerivedDefaults()
	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.applyDerivedDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// applyDerivedDefaults fills path defaults that depend on the user's home
// directory and cannot be expressed as struct tags.
func (c *Config) applyDerivedDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if c.Library.MediaDir == "" {
		c.Library.MediaDir = home + "/.pocketbox/media"
	}
	if c.Store.DBPath == "" {
		c.Store.DBPath = home + "/.pocketbox/pocketbox.db"
	}
	if c.Log.Output == "file" && c.Log.File == "" {
		c.Log.File = home + "/.pocketbox/pocketbox.log"
	}
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("POCKETBOX_MEDIA_DIR"); v != "" {
		c.Library.MediaDir = v
	}
	if v := os.Getenv("POCKETBOX_DB_PATH"); v != "" {
		c.Store.DBPath = v
	}
	if v := os.Getenv("POCKETBOX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CATALOG_API_KEY"); v != "" {
		if c.Catalog.Provider.Settings == nil {
			c.Catalog.Provider.Settings = map[string]any{}
		}
		c.Catalog.Provider.Settings["api_key"] = v
	}
}

// PreviousThreshold returns the restart-vs-previous threshold as a duration.
func (c *Config) PreviousThreshold() time.Duration {
	return time.Duration(c.Player.PreviousThresholdMs) * time.Millisecond
}

// ProgressInterval returns the progress publish interval as a duration.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Player.ProgressIntervalMs) * time.Millisecond
}

// ProbeTimeout returns the duration probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Library.ProbeTimeoutMs) * time.Millisecond
}

// MaxFileBytes returns the import size ceiling in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Library.MaxFileMB) << 20
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
