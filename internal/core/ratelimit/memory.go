package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultSweepEvery = 1000

// MemoryStore is a single-process Store. Every read-check-write happens under
// one mutex, so concurrent requests on a key cannot both pass the limit.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     Clock

	sweepEvery int
	writes     int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		entries:    make(map[string]Entry),
		now:        o.now,
		sweepEvery: o.sweepEvery,
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration, max int) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.afterWriteLocked(now)

	e, ok := s.entries[key]
	if !ok || !now.Before(e.ResetAt) {
		e = Entry{Count: 1, ResetAt: now.Add(window)}
		s.entries[key] = e
		return e, true, nil
	}
	if e.Count >= max {
		return e, false, nil
	}
	e.Count++
	s.entries[key] = e
	return e, true, nil
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.afterWriteLocked(now)

	e, ok := s.entries[key]
	if !ok || !now.Before(e.ResetAt) {
		e = Entry{Count: 0, ResetAt: now.Add(window)}
	}
	e.Count++
	s.entries[key] = e
	return e, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.ResetAt) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now()), nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) afterWriteLocked(now time.Time) {
	if s.sweepEvery == 0 {
		return
	}
	s.writes++
	if s.writes >= s.sweepEvery {
		s.writes = 0
		s.sweepLocked(now)
	}
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.ResetAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}
