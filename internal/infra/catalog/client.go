// Package catalog provides a thin client for the remote track search and
// streaming-preview API.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// cacheTTL bounds how long trending/explore listings are reused.
const cacheTTL = 5 * time.Minute

// Config represents catalog client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Limit   int // Maximum results per request
}

// Client is a remote catalog API client. Responses are cached in memory;
// search results by query, listings with a TTL.
type Client struct {
	baseURL    string
	apiKey     string
	limit      int
	httpClient *http.Client

	cacheMu     sync.RWMutex
	searchCache map[string][]track.Track
	listCache   map[string]listCacheEntry
}

type listCacheEntry struct {
	tracks    []track.Track
	fetchedAt time.Time
}

// trackPayload is the wire form of a catalog track.
type trackPayload struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	DurationSec float64 `json:"duration"`
	StreamURL   string  `json:"stream_url"`
	ArtworkURL  string  `json:"artwork_url"`
}

// tracksResponse is the common response envelope.
type tracksResponse struct {
	Tracks []trackPayload `json:"tracks"`
}

// apiError is an error response from the catalog API.
type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 25
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		limit:       limit,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		searchCache: make(map[string][]track.Track),
		listCache:   make(map[string]listCacheEntry),
	}, nil
}

// Search finds tracks matching the query.
func (c *Client) Search(ctx context.Context, query string) ([]track.Track, error) {
	c.cacheMu.RLock()
	cached, ok := c.searchCache[query]
	c.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	tracks, err := c.fetch(ctx, "search", url.Values{"q": []string{query}})
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	c.searchCache[query] = tracks
	c.cacheMu.Unlock()
	return tracks, nil
}

// Trending returns the current trending tracks.
func (c *Client) Trending(ctx context.Context) ([]track.Track, error) {
	return c.listing(ctx, "trending")
}

// Explore returns editorially curated discovery tracks.
func (c *Client) Explore(ctx context.Context) ([]track.Track, error) {
	return c.listing(ctx, "explore")
}

func (c *Client) listing(ctx context.Context, endpoint string) ([]track.Track, error) {
	c.cacheMu.RLock()
	entry, ok := c.listCache[endpoint]
	c.cacheMu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < cacheTTL {
		return entry.tracks, nil
	}

	tracks, err := c.fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	c.listCache[endpoint] = listCacheEntry{tracks: tracks, fetchedAt: time.Now()}
	c.cacheMu.Unlock()
	return tracks, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]track.Track, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid catalog base URL")
	}
	u = u.JoinPath(endpoint)

	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(c.limit))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog request %s failed", endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog response")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, errors.Newf("catalog API error %d: %s", apiErr.Code, apiErr.Message)
		}
		return nil, errors.Newf("catalog request %s returned status %d", endpoint, resp.StatusCode)
	}

	var envelope tracksResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog response")
	}

	tracks := make([]track.Track, 0, len(envelope.Tracks))
	for _, p := range envelope.Tracks {
		if p.ID == "" || p.StreamURL == "" {
			zlog.Debug().Msgf("catalog: dropping unplayable result %q", p.Title)
			continue
		}
		t := track.Track{
			ID:         track.RemoteIDPrefix + p.ID,
			Title:      p.Title,
			Artist:     p.Artist,
			Album:      p.Album,
			Duration:   time.Duration(p.DurationSec * float64(time.Second)),
			Source:     track.SourceStream,
			Locator:    p.StreamURL,
			ArtworkURL: p.ArtworkURL,
			AddedAt:    time.Now(),
		}
		t.Normalize()
		tracks = append(tracks, t)
	}
	return tracks, nil
}
