package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/forecast-dashboard/internal/chart"
	"github.com/i474232898/forecast-dashboard/internal/forecast"
	"github.com/i474232898/forecast-dashboard/internal/geo"
	"github.com/i474232898/forecast-dashboard/internal/prefs"
	"github.com/i474232898/forecast-dashboard/internal/series"
)

const MessageProfilesFailed = "failed to fetch profiles"

// Forecaster is what the view needs from the forecast service.
type Forecaster interface {
	Forecast(ctx context.Context, q forecast.Query) (*forecast.Data, error)
	Refresh(ctx context.Context, q forecast.Query) (*forecast.Data, error)
	Profiles(ctx context.Context) ([]string, error)
}

// Config holds the per-view settings.
type Config struct {
	AppName  string
	Lang     string
	Location *time.Location
	Palette  series.Palette
	// Locate is merged over the default position options.
	Locate *geo.Overrides
}

// Deps are the collaborators of a view.
type Deps struct {
	Forecasts        Forecaster
	Profile          *prefs.Profile
	Source           geo.Source
	Factory          chart.Factory
	FlowContainer    chart.Container
	StackedContainer chart.Container
	// Publish, if set, receives a snapshot after every section change.
	Publish func(Snapshot)
	Events  chart.Events
}

// Profiles is the profile section.
type Profiles struct {
	List     []string `json:"list"`
	Selected string   `json:"selected"`
	Message  string   `json:"message,omitempty"`
}

// Snapshot is the whole page state.
type Snapshot struct {
	Details  Details  `json:"details"`
	Profiles Profiles `json:"profiles"`
	Forecast Forecast `json:"forecast"`
}

// View is one mounted dashboard page. Each section fails on its own: a
// location error leaves the profile list intact and a fetch error leaves the
// location details intact.
type View struct {
	cfg  Config
	deps Deps

	acq     *geo.Acquisition
	flow    *chart.Widget[chart.FlowInput]
	stacked *chart.Widget[chart.StackedInput]

	pubMu sync.Mutex

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	mounted   bool
	unmounted bool
	location  geo.State
	details   Details
	profiles  Profiles
	forecast  Forecast
	gen       uint64
	wg        sync.WaitGroup
}

// New creates an unmounted view.
func New(cfg Config, deps Deps) *View {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Palette == nil {
		cfg.Palette = series.DefaultPalette()
	}

	v := &View{
		cfg:      cfg,
		deps:     deps,
		location: geo.State{Status: geo.StatusLocating},
		forecast: Forecast{Status: ForecastIdle},
	}
	v.details = BuildDetails(v.location, cfg.Lang, cfg.Location, time.Now())
	v.profiles = Profiles{List: []string{}, Selected: v.selectedProfile()}

	var opts []chart.WidgetOption
	if !deps.Events.Empty() {
		opts = append(opts, chart.WithEvents(deps.Events))
	}
	v.flow = chart.NewFlowChart(deps.Factory, opts...)
	v.stacked = chart.NewStackedChart(deps.Factory, opts...)
	v.acq = geo.NewAcquisition(cfg.AppName, deps.Source, v.onLocation)
	return v
}

func (v *View) selectedProfile() string {
	if v.deps.Profile == nil {
		return forecast.DefaultProfile
	}
	return v.deps.Profile.Current()
}

// Mount binds both charts, loads the profile list and starts locating.
// Chart mount failures are returned but do not stop the other sections.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return errors.New("dashboard already mounted")
	}
	v.mounted = true
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.wg.Add(1)
	v.mu.Unlock()

	var errs []error
	if err := v.flow.Mount(v.deps.FlowContainer); err != nil {
		log.Printf("ERROR: mount flow chart: %v", err)
		errs = append(errs, err)
	}
	if err := v.stacked.Mount(v.deps.StackedContainer); err != nil {
		log.Printf("ERROR: mount stacked chart: %v", err)
		errs = append(errs, err)
	}

	go v.loadProfiles()
	v.acq.Activate(v.ctx, v.cfg.Locate)
	return errors.Join(errs...)
}

func (v *View) loadProfiles() {
	defer v.wg.Done()

	selected := v.selectedProfile()
	list, err := v.deps.Forecasts.Profiles(v.ctx)
	section := Profiles{List: list, Selected: selected}
	if err != nil {
		log.Printf("ERROR: fetch profiles: %v", err)
		section = Profiles{List: []string{selected}, Selected: selected, Message: MessageProfilesFailed}
	}

	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return
	}
	v.profiles = section
	v.mu.Unlock()
	v.publish()
}

func (v *View) onLocation(state geo.State) {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return
	}
	v.location = state
	v.details = BuildDetails(state, v.cfg.Lang, v.cfg.Location, time.Now())
	v.mu.Unlock()

	v.publish()
	if state.Status == geo.StatusLocated {
		v.fetch(false)
	}
}

// SetProfile persists the selection and refetches the forecast with it.
func (v *View) SetProfile(ctx context.Context, name string) error {
	if v.deps.Profile == nil {
		return errors.New("profile selection is not configured")
	}
	if err := v.deps.Profile.Select(ctx, name); err != nil {
		log.Printf("ERROR: save profile %q: %v", name, err)
		return fmt.Errorf("select profile: %w", err)
	}

	v.mu.Lock()
	v.profiles.Selected = name
	v.mu.Unlock()

	v.publish()
	v.fetch(false)
	return nil
}

// Refresh refetches the forecast, bypassing the cache.
func (v *View) Refresh(context.Context) {
	v.fetch(true)
}

// fetch starts a forecast request. Only the latest request may apply its
// result, and nothing is applied once the view is unmounted.
func (v *View) fetch(refresh bool) {
	v.mu.Lock()
	if v.unmounted || v.location.Status != geo.StatusLocated || v.location.Position == nil {
		v.mu.Unlock()
		return
	}
	v.gen++
	gen := v.gen
	q := forecast.Query{
		Lat:     v.location.Position.Latitude,
		Lon:     v.location.Position.Longitude,
		Lang:    v.cfg.Lang,
		TZ:      v.cfg.Location.String(),
		Profile: v.selectedProfile(),
	}
	ctx := v.ctx
	v.forecast.Status = ForecastLoading
	v.forecast.Message = ""
	v.wg.Add(1)
	v.mu.Unlock()

	v.publish()

	go func() {
		defer v.wg.Done()

		get := v.deps.Forecasts.Forecast
		if refresh {
			get = v.deps.Forecasts.Refresh
		}
		data, err := get(ctx, q)

		v.mu.Lock()
		if v.unmounted || gen != v.gen {
			v.mu.Unlock()
			log.Printf("DEBUG: dropped superseded forecast for %s", q.Key())
			return
		}

		if err != nil {
			log.Printf("ERROR: fetch forecast for %s: %v", q.Key(), err)
			v.forecast = Forecast{Status: ForecastFailed, Message: MessageFetchFailed}
			v.mu.Unlock()
			v.publish()
			return
		}

		section, charts := Compose(data, v.cfg.Location, v.cfg.Palette)
		v.forecast = section
		if err := v.flow.Update(charts.Flow); err != nil {
			log.Printf("ERROR: update flow chart: %v", err)
		}
		if err := v.stacked.Update(charts.Stacked); err != nil {
			log.Printf("ERROR: update stacked chart: %v", err)
		}
		v.mu.Unlock()

		v.publish()
	}()
}

// Snapshot returns the current page state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	profiles := v.profiles
	profiles.List = append([]string(nil), v.profiles.List...)
	return Snapshot{
		Details:  v.details,
		Profiles: profiles,
		Forecast: v.forecast,
	}
}

func (v *View) publish() {
	if v.deps.Publish == nil {
		return
	}

	v.pubMu.Lock()
	defer v.pubMu.Unlock()

	v.mu.Lock()
	unmounted := v.unmounted
	v.mu.Unlock()
	if unmounted {
		return
	}
	v.deps.Publish(v.Snapshot())
}

// Unmount stops locating, drops in-flight fetches and disposes both charts.
func (v *View) Unmount() {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return
	}
	v.unmounted = true
	cancel := v.cancel
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	v.acq.Stop()
	v.wg.Wait()

	v.flow.Unmount()
	v.stacked.Unmount()
}
