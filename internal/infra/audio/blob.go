package audio

import (
	"bytes"
	"context"
	"os"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// BlobResolver turns a locator into raw media bytes. The default reads the
// locator as a filesystem path; platforms with managed media storage
// (content URIs, store-addressed blobs) install their own resolver.
type BlobResolver func(ctx context.Context, locator string) ([]byte, error)

// BlobBackend plays local tracks from an in-memory byte buffer. It is the
// fallback for locators the native backend cannot address directly; the
// buffer is the transient blob reference and is released on Stop.
type BlobBackend struct {
	transport
	resolve BlobResolver
}

// NewBlobBackend creates the in-memory backend. A nil resolver reads the
// locator as a file path.
func NewBlobBackend(resolve BlobResolver) *BlobBackend {
	if resolve == nil {
		resolve = func(_ context.Context, locator string) ([]byte, error) {
			return os.ReadFile(locator)
		}
	}
	return &BlobBackend{transport: newTransport(), resolve: resolve}
}

// Name implements player.Backend.
func (b *BlobBackend) Name() string { return "blob" }

// Load implements player.Backend.
func (b *BlobBackend) Load(ctx context.Context, t track.Track, onDone func()) error {
	data, err := b.resolve(ctx, t.Locator)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve media bytes for %q", t.Locator)
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
	zlog.Debug().Msgf("audio: blob backend loaded %q (%d bytes)", t.Locator, len(data))
	return nil
}

// blobRef is a revocable handle on decoded media bytes.
type blobRef struct {
	data []byte
}

// revoke drops the buffer so it can be collected.
func (r *blobRef) revoke() {
	r.data = nil
}
