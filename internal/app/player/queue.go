package player

import (
	"math/rand"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// SetShuffle toggles shuffle mode. Enabling snapshots the current order and
// produces a uniform random permutation of all other tracks, keeping the
// currently playing track fixed at position 0. Disabling restores the
// snapshotted order and re-locates the current track within it.
func (e *Engine) SetShuffle(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if active == e.shuffle {
		return
	}

	if active {
		e.shuffleQueueLocked()
	} else {
		e.restoreQueueLocked()
	}
	e.shuffle = active
	e.publishLocked()
}

// Shuffle reports whether shuffle mode is active.
func (e *Engine) Shuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuffle
}

func (e *Engine) shuffleQueueLocked() {
	if len(e.queue) == 0 {
		return
	}

	e.preShuffle = make([]track.Track, len(e.queue))
	copy(e.preShuffle, e.queue)

	// Current track stays at the front; everything else is permuted.
	rest := make([]track.Track, 0, len(e.queue)-1)
	var current []track.Track
	for i, t := range e.queue {
		if i == e.index {
			current = append(current, t)
			continue
		}
		rest = append(rest, t)
	}
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	e.queue = append(current, rest...)
	if len(current) > 0 {
		e.index = 0
	}
}

func (e *Engine) restoreQueueLocked() {
	if e.preShuffle == nil {
		return
	}

	var currentID string
	if e.index >= 0 && e.index < len(e.queue) {
		currentID = e.queue[e.index].ID
	}

	e.queue = e.preShuffle
	e.preShuffle = nil

	e.index = 0
	for i, t := range e.queue {
		if t.ID == currentID {
			e.index = i
			break
		}
	}
	if len(e.queue) == 0 {
		e.index = -1
	}
}
