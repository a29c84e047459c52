package geo

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
)

// StaticSource always returns the same fix, or Err if set.
type StaticSource struct {
	Position Position
	Err      error
}

func (s StaticSource) Available() bool { return true }

func (s StaticSource) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if s.Err != nil {
		return Position{}, s.Err
	}
	return s.Position, nil
}

// geocoderMu serializes lookups: the geocoder reads its API key from a
// package variable.
var geocoderMu sync.Mutex

// geocodeFunc matches geocoder.Geocoding.
type geocodeFunc func(geocoder.Address) (geocoder.Location, error)

// GeocodeSource resolves a configured street address to a position. A fix
// younger than Options.MaximumAge is served from memory.
type GeocodeSource struct {
	address  geocoder.Address
	apiKey   string
	accuracy float64
	geocode  geocodeFunc
	now      func() time.Time

	mu       sync.Mutex
	cached   *Position
	cachedAt time.Time
}

// NewGeocodeSource creates a source for address, given as
// "street, city, country" with leading parts optional.
func NewGeocodeSource(address, apiKey string, accuracy float64) *GeocodeSource {
	return &GeocodeSource{
		address:  ParseAddress(address),
		apiKey:   apiKey,
		accuracy: accuracy,
		geocode:  geocoder.Geocoding,
		now:      time.Now,
	}
}

// ParseAddress splits a comma separated address into geocoder parts, taking
// the last part as the country and the one before it as the city.
func ParseAddress(s string) geocoder.Address {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var addr geocoder.Address
	switch n := len(parts); {
	case n == 0:
	case n == 1:
		addr.City = parts[0]
	default:
		addr.Country = parts[n-1]
		addr.City = parts[n-2]
		addr.Street = strings.Join(parts[:n-2], ", ")
	}
	return addr
}

// Available is false when there is no address or API key to resolve.
func (s *GeocodeSource) Available() bool {
	return s.apiKey != "" && (s.address.City != "" || s.address.Country != "")
}

func (s *GeocodeSource) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	s.mu.Lock()
	if s.cached != nil && opts.MaximumAge > 0 && s.now().Sub(s.cachedAt) <= opts.MaximumAge {
		pos := *s.cached
		s.mu.Unlock()
		return pos, nil
	}
	s.mu.Unlock()

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		loc, err := s.lookup()
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return Position{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return Position{}, &PositionError{
				Code:    CodePositionUnavailable,
				Message: fmt.Sprintf("geocode %s: %v", s.address.City, r.err),
			}
		}

		pos := Position{Latitude: r.loc.Latitude, Longitude: r.loc.Longitude, Accuracy: s.accuracy}
		s.mu.Lock()
		s.cached = &pos
		s.cachedAt = s.now()
		s.mu.Unlock()

		log.Printf("DEBUG: geocoded %s, %s to %.4f,%.4f", s.address.City, s.address.Country, pos.Latitude, pos.Longitude)
		return pos, nil
	}
}

func (s *GeocodeSource) lookup() (geocoder.Location, error) {
	geocoderMu.Lock()
	defer geocoderMu.Unlock()

	geocoder.ApiKey = s.apiKey
	return s.geocode(s.address)
}
