package player

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// Backend is a concrete audio output mechanism. Exactly one backend is
// active per loaded track; the engine is its exclusive owner and fully
// releases it (Stop) before activating another.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Load prepares the track's media for playback. onDone is invoked once
	// when the media reaches its natural end; it must not be invoked after
	// Stop. Load does not start audio output.
	Load(ctx context.Context, t track.Track, onDone func()) error

	// Play starts or resumes audio output.
	Play() error

	// Pause stops audio output, retaining the transport position.
	Pause() error

	// Stop halts output, resets the transport position to 0, and releases
	// every resource held for the loaded media (decoder handles, transient
	// byte buffers). Stop is idempotent.
	Stop() error

	// Seek moves the transport position. The engine clamps before calling.
	Seek(pos time.Duration) error

	// Position reports the current transport position.
	Position() time.Duration

	// Duration reports the loaded media's duration, 0 if unknown.
	Duration() time.Duration

	// SetVolume applies an output level in [0,1].
	SetVolume(level float64)
}

// Selector returns the ordered backend candidates to try for a track.
// The engine attempts each in sequence and surfaces a PlaybackError only
// after the whole chain failed.
type Selector func(t track.Track) []Backend

// NewSelector builds the default selection policy from the available
// backends, any of which may be nil on platforms lacking the capability:
// stream tracks use the direct-URL backend, local tracks prefer native
// output and fall back to blob (in-memory) playback.
func NewSelector(native, blob, stream Backend) Selector {
	return func(t track.Track) []Backend {
		var candidates []Backend
		if t.IsStream() {
			candidates = []Backend{stream}
		} else {
			candidates = []Backend{native, blob}
		}
		return lo.Compact(candidates)
	}
}
