package player

import (
	"sync"

	"github.com/google/uuid"
)

// subscribers manages state observers keyed by subscription id.
type subscribers struct {
	mu   sync.RWMutex
	subs map[string]func(Snapshot)
}

func newSubscribers() *subscribers {
	return &subscribers{
		subs: make(map[string]func(Snapshot)),
	}
}

// add registers a callback and returns its unsubscribe function.
func (s *subscribers) add(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// notify invokes every registered callback with the snapshot.
// Callbacks run in the dispatcher goroutine, in registration-independent
// order, without any engine lock held.
func (s *subscribers) notify(snap Snapshot) {
	s.mu.RLock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
