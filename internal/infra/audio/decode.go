package audio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrNoDecoder is returned when no decoder exists for a locator's format.
var ErrNoDecoder = errors.New("no decoder for audio format")

// mediaSource is what every decoder in the beep toolkit can consume.
type mediaSource interface {
	io.Reader
	io.Seeker
	io.Closer
}

// decode picks a decoder from the locator's extension.
func decode(locator string, src mediaSource) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(stripQuery(locator))) {
	case ".mp3":
		return mp3.Decode(src)
	case ".wav":
		return wav.Decode(src)
	case ".flac":
		return flac.Decode(src)
	case ".ogg", ".oga":
		return vorbis.Decode(src)
	default:
		return nil, beep.Format{}, errors.Wrapf(ErrNoDecoder, "locator %q", locator)
	}
}

// stripQuery drops a URL query so extension detection works on stream URLs.
func stripQuery(locator string) string {
	if i := strings.IndexByte(locator, '?'); i >= 0 {
		return locator[:i]
	}
	return locator
}

// Probe resolves the duration of an audio file by decoding its header,
// bounded by the context deadline. On timeout or decode failure the
// duration is reported as unknown (0) together with the error; callers
// treat that as non-fatal.
func Probe(ctx context.Context, path string) (time.Duration, error) {
	type result struct {
		d   time.Duration
		err error
	}
	ch := make(chan result, 1)

	go func() {
		f, err := os.Open(path)
		if err != nil {
			ch <- result{0, errors.Wrap(err, "failed to open media file")}
			return
		}
		defer f.Close()

		streamer, format, err := decode(path, f)
		if err != nil {
			ch <- result{0, errors.Wrapf(err, "failed to decode %q", path)}
			return
		}
		defer streamer.Close()

		ch <- result{format.SampleRate.D(streamer.Len()), nil}
	}()

	select {
	case r := <-ch:
		return r.d, r.err
	case <-ctx.Done():
		return 0, errors.Wrap(ctx.Err(), "duration probe timed out")
	}
}
