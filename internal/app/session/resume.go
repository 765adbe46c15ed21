// Package session checkpoints playback state so a relaunch resumes where
// the listener left off.
package session

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/pocketbox/pocketbox/internal/app/player"
	"github.com/pocketbox/pocketbox/internal/domain/track"
)

// Settings keys for the resume checkpoint.
const (
	keyQueue    = "resume.queue"
	keyIndex    = "resume.index"
	keyPosition = "resume.position_ms"
	keyVolume   = "resume.volume"
	keyShuffle  = "resume.shuffle"
	keyRepeat   = "resume.repeat"
)

// defaultFlushInterval throttles position-only checkpoint writes.
const defaultFlushInterval = 5 * time.Second

// Store is the persistence surface the checkpointer needs.
type Store interface {
	GetTrack(id string) (track.Track, error)
	SetSetting(key, value string) error
	GetSetting(key string) (string, error)
}

// Checkpointer subscribes to engine state and persists a resume point.
// Track and queue changes are written immediately; position-only changes
// are throttled to the flush interval.
type Checkpointer struct {
	engine *player.Engine
	store  Store

	mu          sync.Mutex
	last        player.Snapshot
	lastFlush   time.Time
	lastQueueID string
	unsubscribe func()
}

// NewCheckpointer creates a checkpointer for the given engine and store.
func NewCheckpointer(engine *player.Engine, store Store) *Checkpointer {
	return &Checkpointer{
		engine: engine,
		store:  store,
	}
}

// Start begins observing the engine.
func (c *Checkpointer) Start() {
	c.unsubscribe = c.engine.Subscribe(c.observe)
}

// Close stops observing and writes a final checkpoint.
func (c *Checkpointer) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}

	c.mu.Lock()
	snap := c.last
	c.mu.Unlock()
	if snap.CurrentTrack != nil {
		if err := c.flush(snap); err != nil {
			zlog.Warn().Err(err).Msg("session: final checkpoint failed")
		}
	}
}

func (c *Checkpointer) observe(snap player.Snapshot) {
	c.mu.Lock()
	c.last = snap

	queueID := queueIdentity(snap)
	structural := queueID != c.lastQueueID
	throttled := time.Since(c.lastFlush) < defaultFlushInterval
	if !structural && throttled {
		c.mu.Unlock()
		return
	}
	c.lastQueueID = queueID
	c.lastFlush = time.Now()
	c.mu.Unlock()

	if snap.CurrentTrack == nil {
		return
	}
	if err := c.flush(snap); err != nil {
		zlog.Warn().Err(err).Msg("session: checkpoint write failed")
	}
}

// queueIdentity distinguishes structural state changes from mere progress.
func queueIdentity(snap player.Snapshot) string {
	currentID := ""
	if snap.CurrentTrack != nil {
		currentID = snap.CurrentTrack.ID
	}
	return strconv.Itoa(len(snap.Queue)) + "/" + strconv.Itoa(snap.CurrentIndex) + "/" + currentID
}

func (c *Checkpointer) flush(snap player.Snapshot) error {
	ids := make([]string, 0, len(snap.Queue))
	for _, t := range snap.Queue {
		ids = append(ids, t.ID)
	}
	queueJSON, err := json.Marshal(ids)
	if err != nil {
		return errors.Wrap(err, "failed to encode resume queue")
	}

	pairs := map[string]string{
		keyQueue:    string(queueJSON),
		keyIndex:    strconv.Itoa(snap.CurrentIndex),
		keyPosition: strconv.FormatInt(snap.Position.Milliseconds(), 10),
		keyVolume:   strconv.FormatFloat(snap.Volume, 'f', -1, 64),
		keyShuffle:  strconv.FormatBool(snap.Shuffle),
		keyRepeat:   string(snap.Repeat),
	}
	for key, value := range pairs {
		if err := c.store.SetSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Restore rebuilds the last checkpointed queue on the engine, paused at
// the saved track and position. Tracks removed from the store since the
// checkpoint are skipped. Returns false when there is nothing to resume.
func (c *Checkpointer) Restore() (bool, error) {
	queueJSON, err := c.store.GetSetting(keyQueue)
	if err != nil {
		return false, err
	}
	if queueJSON == "" {
		return false, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(queueJSON), &ids); err != nil {
		return false, errors.Wrap(err, "failed to decode resume queue")
	}

	savedIndex := c.readInt(keyIndex, 0)
	savedCurrentID := ""
	if savedIndex >= 0 && savedIndex < len(ids) {
		savedCurrentID = ids[savedIndex]
	}

	queue := make([]track.Track, 0, len(ids))
	index := 0
	for _, id := range ids {
		t, err := c.store.GetTrack(id)
		if err != nil {
			zlog.Debug().Msgf("session: skipping missing resume track %s", id)
			continue
		}
		if t.ID == savedCurrentID {
			index = len(queue)
		}
		queue = append(queue, t)
	}
	if len(queue) == 0 {
		return false, nil
	}

	if v, err := strconv.ParseFloat(c.readString(keyVolume, "1"), 64); err == nil {
		c.engine.SetVolume(v)
	}
	if mode := c.readString(keyRepeat, ""); mode != "" {
		c.engine.SetRepeatMode(player.RepeatMode(mode))
	}

	if err := c.engine.SetQueue(queue, index); err != nil {
		return false, err
	}
	if err := c.engine.Pause(); err != nil {
		return false, err
	}
	if pos := c.readInt(keyPosition, 0); pos > 0 {
		if err := c.engine.Seek(time.Duration(pos) * time.Millisecond); err != nil {
			zlog.Debug().Err(err).Msg("session: resume seek failed")
		}
	}
	if c.readString(keyShuffle, "false") == "true" {
		c.engine.SetShuffle(true)
	}
	return true, nil
}

func (c *Checkpointer) readString(key, fallback string) string {
	v, err := c.store.GetSetting(key)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func (c *Checkpointer) readInt(key string, fallback int) int {
	v, err := c.store.GetSetting(key)
	if err != nil || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
