package audio

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// transport holds the session handling shared by every backend in this
// package: play/pause/stop, seek, position, duration, and volume. Backends
// differ only in how Load acquires and releases the media bytes.
type transport struct {
	mu      sync.Mutex
	session *session
	level   float64
}

func newTransport() transport {
	return transport{level: 1.0}
}

// attach installs a freshly started session, tearing down any previous one.
func (t *transport) attach(s *session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.close()
	}
	t.session = s
	s.setVolume(t.level)
}

// Play starts or resumes audio output.
func (t *transport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return errors.New("no media loaded")
	}
	return t.session.play()
}

// Pause stops output, retaining the transport position.
func (t *transport) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	return t.session.pause()
}

// Stop halts output and releases every resource held for the loaded media.
func (t *transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.close()
		t.session = nil
	}
	return nil
}

// Seek moves the transport position.
func (t *transport) Seek(pos time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	return t.session.seek(pos)
}

// Position reports the current transport position.
func (t *transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return 0
	}
	return t.session.position()
}

// Duration reports the loaded media's duration.
func (t *transport) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return 0
	}
	return t.session.duration()
}

// SetVolume applies an output level in [0,1].
func (t *transport) SetVolume(level float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.level = level
	if t.session != nil {
		t.session.setVolume(level)
	}
}
