package player

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	ErrNoTrack    = errors.New("no track selected")
	ErrQueueEmpty = errors.New("queue is empty")
)

// PlaybackError reports a backend failure to load or play media.
// It carries the track locator and (via Unwrap) the underlying cause from
// the last backend candidate that was tried.
type PlaybackError struct {
	Locator string
	Backend string // Name of the last backend tried, empty if none was available
	cause   error
}

func (e *PlaybackError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("playback failed for %q: no backend available", e.Locator)
	}
	return fmt.Sprintf("playback failed for %q (backend %s): %v", e.Locator, e.Backend, e.cause)
}

func (e *PlaybackError) Unwrap() error {
	return e.cause
}

func newPlaybackError(locator, backend string, cause error) *PlaybackError {
	return &PlaybackError{Locator: locator, Backend: backend, cause: cause}
}
