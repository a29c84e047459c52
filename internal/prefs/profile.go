package prefs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/i474232898/forecast-dashboard/internal/forecast"
)

// KeyLastProfile holds the last selected scoring profile.
const KeyLastProfile = "userconfig.lastSelectedProfile"

// Profile is the process-wide last selected profile. It is read once when
// loaded and written through on every Select.
type Profile struct {
	store Store

	mu      sync.Mutex
	current string
}

// LoadProfile reads the stored selection, defaulting to forecast.DefaultProfile.
func LoadProfile(ctx context.Context, store Store) (*Profile, error) {
	current, err := store.Get(ctx, KeyLastProfile)
	switch {
	case errors.Is(err, ErrNotFound):
		current = forecast.DefaultProfile
	case err != nil:
		return nil, fmt.Errorf("load last profile: %w", err)
	case current == "":
		current = forecast.DefaultProfile
	}

	log.Printf("INFO: last selected profile %q", current)
	return &Profile{store: store, current: current}, nil
}

// Current returns the selected profile.
func (p *Profile) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Select makes name current and persists it.
func (p *Profile) Select(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty profile name")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Set(ctx, KeyLastProfile, name); err != nil {
		return err
	}
	p.current = name
	return nil
}
