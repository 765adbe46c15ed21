package audio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// maxStreamBytes bounds how much of a remote stream is buffered; catalog
// results are short preview clips, not full albums.
const maxStreamBytes = 64 << 20

// StreamBackend plays stream tracks from a direct HTTP(S) URL. The body is
// buffered in memory before decoding so the transport supports seeking.
type StreamBackend struct {
	transport
	client *http.Client
}

// NewStreamBackend creates the direct-URL backend. A nil client uses a
// default with a 30s request timeout.
func NewStreamBackend(client *http.Client) *StreamBackend {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &StreamBackend{transport: newTransport(), client: client}
}

// Name implements player.Backend.
func (b *StreamBackend) Name() string { return "stream" }

// Load implements player.Backend.
func (b *StreamBackend) Load(ctx context.Context, t track.Track, onDone func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.Locator, nil)
	if err != nil {
		return errors.Wrapf(err, "invalid stream URL %q", t.Locator)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %q", t.Locator)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("unexpected status %d fetching %q", resp.StatusCode, t.Locator)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStreamBytes))
	if err != nil {
		return errors.Wrapf(err, "failed to buffer stream %q", t.Locator)
	}

	blob := &blobRef{data: data}
	streamer, format, err := decode(t.Locator, nopSeekCloser{bytes.NewReader(data)})
	if err != nil {
		blob.revoke()
		return err
	}

	s, err := startSession(streamer, format, blob.revoke, onDone)
	if err != nil {
		return err
	}
	b.attach(s)
	zlog.Debug().Msgf("audio: stream backend loaded %q (%d bytes)", t.Locator, len(data))
	return nil
}
