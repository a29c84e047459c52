package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/forecast-dashboard/internal/forecast"
)

var (
	// ErrNotFound is returned when no live entry exists for a query.
	ErrNotFound = errors.New("no cached forecast for query")
)

type entry struct {
	data      *forecast.Data
	expiresAt time.Time
}

// MemoryStore is a concurrency-safe in-memory forecast cache. Entries expire
// at the top of the hour following the moment they were saved.
type MemoryStore struct {
	mu sync.RWMutex

	// key: query key
	data map[string]entry

	// max number of entries kept (0 = unlimited)
	maxEntries int

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// NextTopOfHour returns the first whole hour strictly after t.
func NextTopOfHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}

// Save stores data for q, replacing any previous entry wholesale.
func (s *MemoryStore) Save(q forecast.Query, data *forecast.Data) {
	key := q.Key()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{data: data, expiresAt: NextTopOfHour(now)}

	// Enforce retention by count: drop the entries that expire first.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range s.data {
			if k == key {
				continue
			}
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey, oldest = k, e.expiresAt
			}
		}
		if oldestKey == "" {
			break
		}
		delete(s.data, oldestKey)
	}
}

// Get returns the live entry for q.
func (s *MemoryStore) Get(q forecast.Query) (*forecast.Data, error) {
	key := q.Key()
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || !now.Before(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e.data, nil
}

// Prune removes expired entries and reports how many were dropped.
func (s *MemoryStore) Prune() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for k, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, k)
			pruned++
		}
	}
	return pruned
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ forecast.Cache = (*MemoryStore)(nil)
