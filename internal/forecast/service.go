package forecast

import (
	"context"
	"fmt"
	"log"
)

// Cache is the contract the in-memory store (and any future persistent
// store) must satisfy.
type Cache interface {
	Save(q Query, data *Data)
	Get(q Query) (*Data, error)
	Prune() int
}

// Service fronts a Source with a cache so repeated views of the same
// location within the hour do not hit the backend.
type Service struct {
	source Source
	cache  Cache
}

// NewService creates a new Service. cache may be nil.
func NewService(source Source, cache Cache) *Service {
	return &Service{
		source: source,
		cache:  cache,
	}
}

// Forecast returns the cached forecast for q, fetching it on a miss.
func (s *Service) Forecast(ctx context.Context, q Query) (*Data, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(q); err == nil {
			log.Printf("DEBUG: forecast cache hit for %s", q.Key())
			return data, nil
		}
	}

	log.Printf("DEBUG: forecast cache miss for %s, fetching", q.Key())
	data, err := s.source.FetchForecast(ctx, q)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("backend returned no forecast")
	}

	if s.cache != nil {
		s.cache.Save(q, data)
	}
	return data, nil
}

// Refresh bypasses the cache and replaces the entry for q.
func (s *Service) Refresh(ctx context.Context, q Query) (*Data, error) {
	data, err := s.source.FetchForecast(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && data != nil {
		s.cache.Save(q, data)
	}
	return data, nil
}

// Profiles delegates to the underlying source.
func (s *Service) Profiles(ctx context.Context) ([]string, error) {
	return s.source.FetchProfiles(ctx)
}

// Prune drops expired cache entries.
func (s *Service) Prune() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Prune()
}
