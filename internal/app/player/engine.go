package player

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// Config holds engine configuration.
type Config struct {
	PreviousThreshold time.Duration // Elapsed time above which Previous restarts instead of rewinding
	ProgressInterval  time.Duration // Cadence of position updates while playing
	InitialVolume     float64       // Starting output level in [0,1]
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		PreviousThreshold: 3 * time.Second,
		ProgressInterval:  500 * time.Millisecond,
		InitialVolume:     1.0,
	}
}

// Engine is the single authoritative owner of "what is currently playing".
// All operations are safe for concurrent use; overlapping load-initiating
// calls degrade to last-writer-wins via unconditional teardown.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	backend Selector

	// Queue state
	queue      []track.Track
	preShuffle []track.Track // Pre-shuffle order snapshot, nil when shuffle is off
	index      int           // -1 when queue is empty
	shuffle    bool
	repeat     RepeatMode

	// Transport state
	status   Status
	playing  bool
	position time.Duration
	duration time.Duration
	volume   float64

	// Active backend
	active Backend

	// generation invalidates stale end-of-media callbacks and progress
	// ticks after a track switch or teardown.
	generation uint64

	tickerCancel func()

	subs    *subscribers
	eventCh chan Snapshot

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a playback engine using the given backend selection policy.
func New(cfg Config, backend Selector) *Engine {
	if cfg.PreviousThreshold <= 0 {
		cfg.PreviousThreshold = 3 * time.Second
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:     cfg,
		backend: backend,
		index:   -1,
		repeat:  RepeatOff,
		volume:  clampVolume(cfg.InitialVolume),
		status:  StatusIdle,
		subs:    newSubscribers(),
		eventCh: make(chan Snapshot, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
	go e.dispatchLoop()
	return e
}

// Subscribe registers a state observer. The callback receives every
// published snapshot in order. The returned function unsubscribes.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	return e.subs.add(fn)
}

// State returns the current playback state snapshot.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Current returns the current track, if any.
func (e *Engine) Current() (track.Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < 0 || e.index >= len(e.queue) {
		return track.Track{}, false
	}
	return e.queue[e.index], true
}

// IsPlayingTrack reports whether the track with the given id is the one
// currently playing.
func (e *Engine) IsPlayingTrack(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing && e.index >= 0 && e.index < len(e.queue) && e.queue[e.index].ID == id
}

// Load replaces the queue with the single given track and plays it.
func (e *Engine) Load(t track.Track) error {
	return e.SetQueue([]track.Track{t}, 0)
}

// SetQueue replaces the queue wholesale and immediately loads and plays the
// entry at startIndex. An out-of-range startIndex is clamped into the queue.
// An empty queue tears down playback and leaves the engine idle.
func (e *Engine) SetQueue(tracks []track.Track, startIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.teardownLocked()
	e.queue = make([]track.Track, len(tracks))
	copy(e.queue, tracks)
	// Queue replacement adopts the caller's order verbatim; the shuffle
	// flag only takes effect on the next toggle.
	e.preShuffle = nil

	if len(e.queue) == 0 {
		e.index = -1
		e.playing = false
		e.status = StatusIdle
		e.publishLocked()
		return nil
	}

	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex >= len(e.queue) {
		zlog.Debug().Msgf("player: start index %d out of range, clamping to %d", startIndex, len(e.queue)-1)
		startIndex = len(e.queue) - 1
	}
	e.index = startIndex
	return e.loadCurrentLocked(true)
}

// Play resumes the current track from its last known position, or starts
// the current queue entry if nothing is loaded.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.playing {
		return nil
	}
	if e.active != nil {
		if err := e.active.Play(); err != nil {
			return e.failLocked(err)
		}
		e.playing = true
		e.status = StatusPlaying
		e.startTickerLocked()
		e.publishLocked()
		return nil
	}
	if e.index < 0 || e.index >= len(e.queue) {
		return ErrNoTrack
	}
	// Current track retained but released (stopped state): reload it.
	return e.loadCurrentLocked(true)
}

// Pause captures the current position and stops output. Idempotent.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing {
		return nil
	}
	if e.active != nil {
		if err := e.active.Pause(); err != nil {
			return e.failLocked(err)
		}
		e.position = e.active.Position()
	}
	e.playing = false
	e.status = StatusPaused
	e.stopTickerLocked()
	e.publishLocked()
	return nil
}

// TogglePlay pauses if playing, otherwise plays.
func (e *Engine) TogglePlay() error {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()

	if playing {
		return e.Pause()
	}
	return e.Play()
}

// Seek moves the transport position, clamping into [0, duration].
// Out-of-range positions are clamped rather than rejected.
func (e *Engine) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return ErrNoTrack
	}
	clamped := pos
	if clamped < 0 {
		clamped = 0
	}
	if e.duration > 0 && clamped > e.duration {
		clamped = e.duration
	}
	if clamped != pos {
		zlog.Debug().Msgf("player: seek position %v out of range, clamped to %v", pos, clamped)
	}
	if err := e.active.Seek(clamped); err != nil {
		return e.failLocked(err)
	}
	e.position = clamped
	e.publishLocked()
	return nil
}

// Next advances one queue position with wraparound and plays the entry.
func (e *Engine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return ErrQueueEmpty
	}
	e.index = (e.index + 1) % len(e.queue)
	return e.loadCurrentLocked(true)
}

// Previous retreats one queue position with wraparound. If more than the
// configured threshold has elapsed in the current track, it restarts the
// current track instead of moving the queue pointer.
func (e *Engine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return ErrQueueEmpty
	}

	elapsed := e.position
	if e.active != nil {
		elapsed = e.active.Position()
	}
	if elapsed > e.cfg.PreviousThreshold {
		// Restart-vs-rewind: keep the queue pointer, rewind to the start.
		if e.active != nil {
			if err := e.active.Seek(0); err != nil {
				return e.failLocked(err)
			}
			e.position = 0
			e.publishLocked()
			return nil
		}
		return e.loadCurrentLocked(true)
	}

	e.index = (e.index - 1 + len(e.queue)) % len(e.queue)
	return e.loadCurrentLocked(true)
}

// SetRepeatMode sets the advance policy for natural end-of-track.
func (e *Engine) SetRepeatMode(mode RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = mode
	e.publishLocked()
}

// SetVolume applies an output level, clamped into [0,1].
func (e *Engine) SetVolume(level float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = clampVolume(level)
	if e.active != nil {
		e.active.SetVolume(e.volume)
	}
	e.publishLocked()
}

// Stop tears down playback, releasing the active backend. The queue and
// current index are retained for a later Play.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.teardownLocked()
	e.playing = false
	e.status = StatusIdle
	e.publishLocked()
	return nil
}

// Close releases the engine and all backend resources.
func (e *Engine) Close() {
	e.mu.Lock()
	e.teardownLocked()
	e.playing = false
	e.status = StatusIdle
	e.mu.Unlock()

	e.cancel()
	close(e.eventCh)
}

// failLocked converts a backend failure into a stopped-but-not-crashed
// state per the propagation policy: playback halts, the error is returned.
func (e *Engine) failLocked(err error) error {
	cur := ""
	if e.index >= 0 && e.index < len(e.queue) {
		cur = e.queue[e.index].Locator
	}
	backend := ""
	if e.active != nil {
		backend = e.active.Name()
	}
	e.teardownLocked()
	e.playing = false
	e.status = StatusIdle
	e.publishLocked()
	return newPlaybackError(cur, backend, err)
}

// loadCurrentLocked tears down any current playback and loads the track at
// the current queue index, trying backend candidates in order. When
// autoplay is set, playback starts as soon as the media is loadable.
func (e *Engine) loadCurrentLocked(autoplay bool) error {
	if e.index < 0 || e.index >= len(e.queue) {
		return ErrNoTrack
	}
	t := e.queue[e.index]

	e.teardownLocked()
	gen := e.generation
	e.playing = false
	e.status = StatusLoading
	e.publishLocked()

	candidates := e.backend(t)
	var lastErr error
	var lastName string
	for _, b := range candidates {
		err := b.Load(e.ctx, t, func() { e.onMediaDone(gen) })
		if err != nil {
			zlog.Warn().Msgf("player: backend %s failed to load %q, trying next: %v", b.Name(), t.Locator, err)
			lastErr = err
			lastName = b.Name()
			continue
		}
		e.active = b
		break
	}

	if e.active == nil {
		// Surface the error state, then settle back to idle.
		e.status = StatusError
		e.publishLocked()
		e.status = StatusIdle
		e.publishLocked()
		return newPlaybackError(t.Locator, lastName, lastErr)
	}

	if d := e.active.Duration(); d > 0 {
		e.duration = d
	} else {
		e.duration = t.Duration
	}
	e.position = 0
	e.active.SetVolume(e.volume)
	e.status = StatusReady

	if autoplay {
		if err := e.active.Play(); err != nil {
			return e.failLocked(err)
		}
		e.playing = true
		e.status = StatusPlaying
		e.startTickerLocked()
	}
	e.publishLocked()
	return nil
}

// onMediaDone handles natural end-of-media from the active backend and
// applies the advance policy. Callbacks from a superseded load are ignored.
func (e *Engine) onMediaDone(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		return
	}
	if len(e.queue) == 0 {
		return
	}

	switch {
	case e.repeat == RepeatOne:
		_ = e.loadCurrentLocked(true)

	case e.index >= len(e.queue)-1 && e.repeat == RepeatAll:
		e.index = 0
		_ = e.loadCurrentLocked(true)

	case e.index >= len(e.queue)-1:
		// End of queue, no repeat: stop, retaining the current track.
		e.teardownLocked()
		e.playing = false
		e.status = StatusIdle
		e.publishLocked()

	default:
		e.index++
		_ = e.loadCurrentLocked(true)
	}
}

// teardownLocked releases the active backend and every per-track resource.
// Order matters: pause output and reset transport (backend Stop), then
// cancel the progress ticker, then clear the cached position.
func (e *Engine) teardownLocked() {
	e.generation++
	if e.active != nil {
		if err := e.active.Stop(); err != nil {
			zlog.Warn().Msgf("player: backend %s stop failed: %v", e.active.Name(), err)
		}
		e.active = nil
	}
	e.stopTickerLocked()
	e.position = 0
	e.duration = 0
}

// startTickerLocked begins periodic position publication for the current
// generation. The ticker's lifetime is scoped to the loaded track and is
// cancelled on every cleanup path.
func (e *Engine) startTickerLocked() {
	e.stopTickerLocked()

	gen := e.generation
	ctx, cancel := context.WithCancel(e.ctx)
	e.tickerCancel = cancel

	go func() {
		ticker := time.NewTicker(e.cfg.ProgressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.mu.Lock()
				if gen != e.generation || !e.playing || e.active == nil {
					e.mu.Unlock()
					return
				}
				e.position = e.active.Position()
				if d := e.active.Duration(); d > 0 {
					e.duration = d
				}
				e.publishLocked()
				e.mu.Unlock()
			}
		}
	}()
}

func (e *Engine) stopTickerLocked() {
	if e.tickerCancel != nil {
		e.tickerCancel()
		e.tickerCancel = nil
	}
}

// snapshotLocked builds a coherent copy of the observable state.
func (e *Engine) snapshotLocked() Snapshot {
	q := make([]track.Track, len(e.queue))
	copy(q, e.queue)

	var current *track.Track
	if e.index >= 0 && e.index < len(e.queue) {
		c := e.queue[e.index]
		current = &c
	}

	return Snapshot{
		Status:       e.status,
		IsPlaying:    e.playing,
		CurrentTrack: current,
		Queue:        q,
		CurrentIndex: e.index,
		Position:     e.position,
		Duration:     e.duration,
		Volume:       e.volume,
		Shuffle:      e.shuffle,
		Repeat:       e.repeat,
	}
}

// publishLocked queues the current snapshot for dispatch. The send never
// blocks; under backpressure older progress updates are dropped in favour
// of the engine staying responsive.
func (e *Engine) publishLocked() {
	snap := e.snapshotLocked()
	select {
	case e.eventCh <- snap:
	case <-e.ctx.Done():
	default:
		zlog.Debug().Msg("player: snapshot channel full, dropping update")
	}
}

// dispatchLoop serializes subscriber callbacks outside the engine lock so
// observers may call back into the engine.
func (e *Engine) dispatchLoop() {
	for snap := range e.eventCh {
		e.subs.notify(snap)
	}
}

func clampVolume(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}
