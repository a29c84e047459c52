package geo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Status is the current phase of an acquisition.
type Status int

const (
	StatusLocating Status = iota
	StatusLocated
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLocating:
		return "locating"
	case StatusLocated:
		return "located"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is exactly one of locating, located(Position) or errored(Message).
type State struct {
	Status   Status    `json:"status"`
	Position *Position `json:"position,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Terminal reports whether the state ends its activation.
func (s State) Terminal() bool {
	return s.Status != StatusLocating
}

const (
	MessageUnsupported = "Your device or browser does not support location services"
	MessageFailed      = "There was a problem finding your location"
)

// PermissionMessage is the errored message shown when access was declined.
func PermissionMessage(appName string) string {
	return appName + " does not have permission to use location services"
}

// Locate runs one activation synchronously and returns its terminal state.
func Locate(ctx context.Context, appName string, src Source, opts Options) State {
	if src == nil || !src.Available() {
		return State{Status: StatusErrored, Message: MessageUnsupported}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := src.CurrentPosition(ctx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &PositionError{Code: CodeTimeout, Message: err.Error()}
		}
		log.Printf("ERROR: locate: %v", err)

		var perr *PositionError
		if errors.As(err, &perr) && perr.Code == CodePermissionDenied {
			return State{Status: StatusErrored, Message: PermissionMessage(appName)}
		}
		return State{Status: StatusErrored, Message: MessageFailed}
	}

	return State{Status: StatusLocated, Position: &pos}
}

// Acquisition is the single-shot location state machine of one mounted view.
// Each Activate restarts from locating; a result belonging to a superseded
// activation, or arriving after Stop, is dropped.
type Acquisition struct {
	appName  string
	source   Source
	defaults Options
	onChange func(State)

	mu      sync.Mutex
	state   State
	gen     uint64
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewAcquisition creates an acquisition in the locating state. onChange, if
// set, is called with every state transition of the current activation.
func NewAcquisition(appName string, source Source, onChange func(State)) *Acquisition {
	return &Acquisition{
		appName:  appName,
		source:   source,
		defaults: DefaultOptions(),
		onChange: onChange,
		state:    State{Status: StatusLocating},
	}
}

// State returns the current state.
func (a *Acquisition) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Activate starts a new acquisition with ov merged over the defaults,
// abandoning any activation still in flight.
func (a *Acquisition) Activate(ctx context.Context, ov *Overrides) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.gen++
	gen := a.gen
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.state = State{Status: StatusLocating}
	a.mu.Unlock()

	a.notify(gen, State{Status: StatusLocating})

	opts := a.defaults.Merge(ov)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()

		result := Locate(ctx, a.appName, a.source, opts)

		a.mu.Lock()
		if a.stopped || gen != a.gen {
			a.mu.Unlock()
			return
		}
		a.state = result
		a.mu.Unlock()

		a.notify(gen, result)
	}()
}

func (a *Acquisition) notify(gen uint64, s State) {
	if a.onChange == nil {
		return
	}
	a.mu.Lock()
	current := !a.stopped && gen == a.gen
	a.mu.Unlock()
	if current {
		a.onChange(s)
	}
}

// Stop abandons the current activation and waits for its goroutine to exit.
// No onChange call starts after Stop returns.
func (a *Acquisition) Stop() {
	a.mu.Lock()
	a.stopped = true
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	a.wg.Wait()
}
