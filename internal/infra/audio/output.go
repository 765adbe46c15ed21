// Package audio provides concrete playback backends over the beep toolkit:
// native file playback, in-memory blob playback, and HTTP stream playback.
package audio

import (
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// mixRate is the fixed output sample rate; all decoded media is resampled
// to it so the speaker device is initialized exactly once.
const mixRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func ensureSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(mixRate, mixRate.N(time.Second/10))
	})
	return speakerErr
}

// session is one loaded piece of media routed through the speaker device.
// It is shared by every backend in this package; the differences between
// backends are only where the bytes come from and what release must free.
type session struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	release  func() // Frees the media source (file handle, byte buffer)
	closed   bool
}

// start decodes nothing itself: the caller hands over an already decoded
// streamer. Playback begins paused; the engine issues Play explicitly.
// onDone fires once when the media drains naturally, never after close.
func startSession(streamer beep.StreamSeekCloser, format beep.Format, release func(), onDone func()) (*session, error) {
	if err := ensureSpeaker(); err != nil {
		if release != nil {
			release()
		}
		streamer.Close()
		return nil, errors.Wrap(err, "failed to initialize audio output")
	}

	s := &session{
		streamer: streamer,
		format:   format,
		release:  release,
	}

	resampled := beep.Resample(4, format.SampleRate, mixRate, streamer)
	s.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2}

	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		// Run outside the speaker lock so the handler may start new media.
		go func() {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed && onDone != nil {
				onDone()
			}
		}()
	})))

	return s, nil
}

func (s *session) play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("audio session closed")
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (s *session) pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// close pauses output, rewinds the transport, releases the decoder and the
// media source, and detaches the session from the speaker device.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	speaker.Clear()

	s.streamer.Close()
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

func (s *session) seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	return s.streamer.Seek(s.format.SampleRate.N(pos))
}

func (s *session) position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos)
}

func (s *session) duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

// setVolume maps a linear level in [0,1] onto the exponential volume
// effect; 0 mutes the output entirely.
func (s *session) setVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	speaker.Lock()
	s.volume.Silent = level <= 0
	s.volume.Volume = (level - 1) * 5
	speaker.Unlock()
}

// nopSeekCloser adapts an in-memory reader to the interfaces the various
// beep decoders expect.
type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }
