package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// Source converts remote search and discovery results into track records.
type Source interface {
	Search(ctx context.Context, query string) ([]track.Track, error)
	Trending(ctx context.Context) ([]track.Track, error)
	Explore(ctx context.Context) ([]track.Track, error)
}

// ProviderConfig selects and configures a catalog source implementation.
type ProviderConfig struct {
	Type     string
	Settings map[string]any
}

// previewSettings are the settings for the "preview" provider type.
type previewSettings struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Limit   int    `mapstructure:"limit"`
}

// NewSource creates a catalog source from provider configuration.
func NewSource(cfg ProviderConfig) (Source, error) {
	switch cfg.Type {
	case "preview", "":
		var settings previewSettings
		if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid preview provider settings")
		}
		return New(Config{
			BaseURL: settings.BaseURL,
			APIKey:  settings.APIKey,
			Limit:   settings.Limit,
		})

	default:
		return nil, errors.Newf("unsupported catalog provider type: %s", cfg.Type)
	}
}
