// Package player provides the playback engine: queue management, transport
// controls, and an observable playback state over pluggable audio backends.
package player

import (
	"time"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// Status represents the engine's playback status.
type Status int

const (
	StatusIdle    Status = iota // No media loaded
	StatusLoading               // Backend is loading media
	StatusReady                 // Media loaded, not yet playing
	StatusPlaying               // Audio output active
	StatusPaused                // Paused, position retained
	StatusError                 // Backend failed; transitions back to Idle after surfacing
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// RepeatMode controls the advance policy on natural end-of-track.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off" // Stop after the last queue entry
	RepeatAll RepeatMode = "all" // Wrap to the first queue entry
	RepeatOne RepeatMode = "one" // Replay the current track
)

// Snapshot is the engine's externally observable playback state.
// Subscribers always receive a coherent snapshot: every field reflects the
// same logical event, never a partial update.
type Snapshot struct {
	Status       Status
	IsPlaying    bool
	CurrentTrack *track.Track  // nil when the queue is empty
	Queue        []track.Track // Copy of the play queue in its active order
	CurrentIndex int           // -1 when the queue is empty
	Position     time.Duration
	Duration     time.Duration // 0 = unknown, not zero-length
	Volume       float64       // 0.0 - 1.0
	Shuffle      bool
	Repeat       RepeatMode
}
