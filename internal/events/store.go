package events

import (
	"sync"
	"time"

	"ratelim/internal/model"
)

// Store keeps the most recent firings in a capped ring for the API.
type Store struct {
	mu    sync.RWMutex
	buf   []model.Firing
	limit int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit}
}

func (s *Store) Add(f model.Firing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, f)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = f
}

func (s *Store) List(limit int) []model.Firing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.Firing, 0, limit)
	start := len(s.buf) - limit
	if start < 0 {
		start = 0
	}
	for i := start; i < len(s.buf); i++ {
		out = append(out, s.buf[i])
	}
	return out
}

func (s *Store) Since(ts time.Time) []model.Firing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Firing, 0)
	for _, f := range s.buf {
		if !f.FiredAt.Before(ts) {
			out = append(out, f)
		}
	}
	return out
}

// Last returns the most recent firing, if any.
func (s *Store) Last() (model.Firing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.buf) == 0 {
		return model.Firing{}, false
	}
	return s.buf[len(s.buf)-1], true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
