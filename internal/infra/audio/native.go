package audio

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// NativeBackend plays local tracks addressable by a plain filesystem path,
// decoding straight from the open file handle.
type NativeBackend struct {
	transport
}

// NewNativeBackend creates the native file backend.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{transport: newTransport()}
}

// Name implements player.Backend.
func (b *NativeBackend) Name() string { return "native" }

// Load implements player.Backend.
func (b *NativeBackend) Load(_ context.Context, t track.Track, onDone func()) error {
	f, err := os.Open(t.Locator)
	if err != nil {
		return errors.Wrapf(err, "failed to open %q", t.Locator)
	}

	streamer, format, err := decode(t.Locator, f)
	if err != nil {
		f.Close()
		return err
	}

	s, err := startSession(streamer, format, func() { f.Close() }, onDone)
	if err != nil {
		return err
	}
	b.attach(s)
	zlog.Debug().Msgf("audio: native backend loaded %q", t.Locator)
	return nil
}
