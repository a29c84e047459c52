package geo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
)

type unavailableSource struct{}

func (unavailableSource) Available() bool { return false }

func (unavailableSource) CurrentPosition(context.Context, Options) (Position, error) {
	panic("position requested from unavailable source")
}

type blockingSource struct {
	release chan Position
	opts    chan Options
}

func (b *blockingSource) Available() bool { return true }

func (b *blockingSource) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	if b.opts != nil {
		b.opts <- opts
	}
	select {
	case <-ctx.Done():
		return Position{}, ctx.Err()
	case pos := <-b.release:
		return pos, nil
	}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		status  Status
		message string
	}{
		{
			name:    "nil source",
			source:  nil,
			status:  StatusErrored,
			message: MessageUnsupported,
		},
		{
			name:    "capability missing",
			source:  unavailableSource{},
			status:  StatusErrored,
			message: MessageUnsupported,
		},
		{
			name:    "permission denied",
			source:  StaticSource{Err: &PositionError{Code: CodePermissionDenied}},
			status:  StatusErrored,
			message: "slike does not have permission to use location services",
		},
		{
			name:    "position unavailable",
			source:  StaticSource{Err: &PositionError{Code: CodePositionUnavailable}},
			status:  StatusErrored,
			message: MessageFailed,
		},
		{
			name:    "timeout code",
			source:  StaticSource{Err: &PositionError{Code: CodeTimeout}},
			status:  StatusErrored,
			message: MessageFailed,
		},
		{
			name:    "untyped failure",
			source:  StaticSource{Err: errors.New("boom")},
			status:  StatusErrored,
			message: MessageFailed,
		},
		{
			name:   "located",
			source: StaticSource{Position: Position{Latitude: 46.05, Longitude: 14.5, Accuracy: 12}},
			status: StatusLocated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Locate(context.Background(), "slike", tt.source, DefaultOptions())
			if got.Status != tt.status {
				t.Fatalf("expected %s, got %s", tt.status, got.Status)
			}
			if got.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, got.Message)
			}
			if tt.status == StatusLocated && (got.Position == nil || got.Position.Latitude != 46.05) {
				t.Errorf("unexpected position %+v", got.Position)
			}
		})
	}
}

func TestLocateTimeout(t *testing.T) {
	src := &blockingSource{release: make(chan Position)}
	opts := DefaultOptions()
	opts.Timeout = 10 * time.Millisecond

	got := Locate(context.Background(), "slike", src, opts)
	if got.Status != StatusErrored || got.Message != MessageFailed {
		t.Fatalf("expected generic failure on timeout, got %+v", got)
	}
}

func TestOptionsMerge(t *testing.T) {
	def := DefaultOptions()
	if !def.HighAccuracy || def.Timeout != 5*time.Second || def.MaximumAge != 0 {
		t.Fatalf("unexpected defaults %+v", def)
	}

	off := false
	age := time.Minute
	got := def.Merge(&Overrides{HighAccuracy: &off, MaximumAge: &age})
	if got.HighAccuracy || got.MaximumAge != time.Minute || got.Timeout != 5*time.Second {
		t.Errorf("unexpected merge result %+v", got)
	}
	if def.Merge(nil) != def {
		t.Error("nil overrides must keep defaults")
	}
}

func TestAcquisitionTransitions(t *testing.T) {
	states := make(chan State, 4)
	src := StaticSource{Position: Position{Latitude: 1, Longitude: 2}}
	a := NewAcquisition("slike", src, func(s State) { states <- s })
	defer a.Stop()

	if a.State().Status != StatusLocating {
		t.Fatalf("expected initial locating, got %s", a.State().Status)
	}

	a.Activate(context.Background(), nil)

	first := <-states
	if first.Status != StatusLocating {
		t.Fatalf("expected locating first, got %s", first.Status)
	}
	select {
	case s := <-states:
		if s.Status != StatusLocated || s.Position.Longitude != 2 {
			t.Fatalf("unexpected terminal state %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("acquisition did not finish")
	}
	if a.State().Status != StatusLocated {
		t.Errorf("expected located, got %s", a.State().Status)
	}
}

func TestAcquisitionReactivationDropsStaleResult(t *testing.T) {
	states := make(chan State, 8)
	src := &blockingSource{release: make(chan Position), opts: make(chan Options, 2)}
	a := NewAcquisition("slike", src, func(s State) { states <- s })
	defer a.Stop()

	a.Activate(context.Background(), nil)
	<-src.opts

	age := time.Minute
	a.Activate(context.Background(), &Overrides{MaximumAge: &age})
	opts := <-src.opts
	if opts.MaximumAge != time.Minute || !opts.HighAccuracy {
		t.Errorf("overrides not merged over defaults: %+v", opts)
	}

	src.release <- Position{Latitude: 7}

	deadline := time.After(time.Second)
	for {
		select {
		case s := <-states:
			if s.Status == StatusErrored {
				t.Fatalf("superseded activation leaked a result: %+v", s)
			}
			if s.Status == StatusLocated {
				if s.Position.Latitude != 7 {
					t.Fatalf("unexpected position %+v", s.Position)
				}
				return
			}
		case <-deadline:
			t.Fatal("second activation did not finish")
		}
	}
}

func TestAcquisitionStopDropsResult(t *testing.T) {
	states := make(chan State, 4)
	src := &blockingSource{release: make(chan Position)}
	a := NewAcquisition("slike", src, func(s State) { states <- s })

	a.Activate(context.Background(), nil)
	<-states
	a.Stop()

	select {
	case s := <-states:
		t.Fatalf("state delivered after stop: %+v", s)
	default:
	}
	if a.State().Status != StatusLocating {
		t.Errorf("stopped acquisition changed state to %s", a.State().Status)
	}
}

func TestGeocodeSource(t *testing.T) {
	calls := 0
	src := NewGeocodeSource("Presernov trg 1, Ljubljana, Slovenia", "key", 50)
	src.geocode = func(addr geocoder.Address) (geocoder.Location, error) {
		calls++
		if addr.City != "Ljubljana" || addr.Country != "Slovenia" || addr.Street != "Presernov trg 1" {
			t.Errorf("unexpected address %+v", addr)
		}
		return geocoder.Location{Latitude: 46.05, Longitude: 14.5}, nil
	}

	if !src.Available() {
		t.Fatal("expected source to be available")
	}

	opts := DefaultOptions()
	opts.MaximumAge = time.Hour
	for i := 0; i < 2; i++ {
		pos, err := src.CurrentPosition(context.Background(), opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pos.Latitude != 46.05 || pos.Accuracy != 50 {
			t.Errorf("unexpected position %+v", pos)
		}
	}
	if calls != 1 {
		t.Errorf("expected cached second fix, got %d geocode calls", calls)
	}

	if _, err := src.CurrentPosition(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("maximum age 0 must bypass the cache, got %d calls", calls)
	}
}

func TestGeocodeSourceFailure(t *testing.T) {
	src := NewGeocodeSource("Nowhere", "key", 0)
	src.geocode = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}

	got := Locate(context.Background(), "slike", src, DefaultOptions())
	if got.Status != StatusErrored || got.Message != MessageFailed {
		t.Fatalf("unexpected state %+v", got)
	}

	if NewGeocodeSource("Ljubljana", "", 0).Available() {
		t.Error("source without API key must be unavailable")
	}
}

func TestGeocodeSourcesKeepTheirKeys(t *testing.T) {
	keyed := func(key string, lat float64) *GeocodeSource {
		src := NewGeocodeSource("Ljubljana, Slovenia", key, 0)
		src.geocode = func(geocoder.Address) (geocoder.Location, error) {
			if geocoder.ApiKey != key {
				return geocoder.Location{}, errors.New("lookup ran with key " + geocoder.ApiKey)
			}
			time.Sleep(time.Millisecond)
			if geocoder.ApiKey != key {
				return geocoder.Location{}, errors.New("key changed during lookup")
			}
			return geocoder.Location{Latitude: lat}, nil
		}
		return src
	}
	sources := []*GeocodeSource{keyed("key-a", 1), keyed("key-b", 2)}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		for j, src := range sources {
			wg.Add(1)
			go func(src *GeocodeSource, want float64) {
				defer wg.Done()
				pos, err := src.CurrentPosition(context.Background(), DefaultOptions())
				if err == nil && pos.Latitude != want {
					err = errors.New("position from the other source")
				}
				if err != nil {
					errs <- err
				}
			}(src, float64(j+1))
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
