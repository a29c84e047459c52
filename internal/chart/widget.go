package chart

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultResizeDelay is the debounce window for size-change notifications.
const DefaultResizeDelay = 50 * time.Millisecond

// State is the lifecycle state of a Widget.
type State int

const (
	StateUnmounted State = iota
	StateInitialized
	StateUpdated
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUnmounted:
		return "unmounted"
	case StateInitialized:
		return "initialized"
	case StateUpdated:
		return "updated"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type widgetConfig struct {
	events      Events
	resizeDelay time.Duration
}

// WidgetOption configures a Widget.
type WidgetOption func(*widgetConfig)

// WithEvents registers interaction callbacks on the engine at mount.
func WithEvents(events Events) WidgetOption {
	return func(c *widgetConfig) {
		c.events = events
	}
}

// WithResizeDelay overrides DefaultResizeDelay.
func WithResizeDelay(d time.Duration) WidgetOption {
	return func(c *widgetConfig) {
		c.resizeDelay = d
	}
}

// Widget binds one engine instance to one container for its mounted
// lifetime. Lifecycle: Unmounted -> Initialized -> (Updated)* -> Disposed.
// All engine calls are serialized in the order they were requested.
type Widget[T any] struct {
	id      string
	name    string
	build   Builder[T]
	factory Factory
	cfg     widgetConfig

	mu        sync.Mutex
	state     State
	mounted   bool
	container Container
	engine    Engine
	unobserve func()
	resize    *Debouncer
}

// NewWidget creates an unmounted widget that renders input with build.
func NewWidget[T any](name string, build Builder[T], factory Factory, opts ...WidgetOption) *Widget[T] {
	cfg := widgetConfig{resizeDelay: DefaultResizeDelay}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Widget[T]{
		id:      uuid.NewString(),
		name:    name,
		build:   build,
		factory: factory,
		cfg:     cfg,
	}
}

// NewFlowChart creates the theme-river widget.
func NewFlowChart(factory Factory, opts ...WidgetOption) *Widget[FlowInput] {
	return NewWidget("flow", FlowOption, factory, opts...)
}

// NewStackedChart creates the stacked-area widget.
func NewStackedChart(factory Factory, opts ...WidgetOption) *Widget[StackedInput] {
	return NewWidget("stacked", StackedOption, factory, opts...)
}

// ID returns the widget instance id.
func (w *Widget[T]) ID() string {
	return w.id
}

// Name returns the widget name.
func (w *Widget[T]) Name() string {
	return w.name
}

// State returns the current lifecycle state.
func (w *Widget[T]) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Mount creates the engine against c and registers the size-change observer.
// If Mount fails part way, Unmount still releases whatever was acquired.
func (w *Widget[T]) Mount(c Container) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateDisposed {
		return ErrDisposed
	}
	if w.mounted {
		return fmt.Errorf("chart %s already mounted", w.name)
	}
	w.mounted = true
	w.container = c

	engine, err := w.factory(c)
	if err != nil {
		return fmt.Errorf("init %s engine: %w", w.name, err)
	}
	w.engine = engine
	w.state = StateInitialized

	if !w.cfg.events.Empty() {
		engine.Subscribe(w.cfg.events)
	}

	w.resize = NewDebouncer(w.cfg.resizeDelay, w.applyResize)
	unobserve, err := c.Observe(func(Size) { w.resize.Trigger() })
	if err != nil {
		return fmt.Errorf("observe %s container %s: %w", w.name, c.ID(), err)
	}
	w.unobserve = unobserve

	log.Printf("DEBUG: chart %s (%s) mounted on %s", w.name, w.id, c.ID())
	return nil
}

// Update builds a fresh option from in and applies it to the existing engine.
func (w *Widget[T]) Update(in T) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state == StateDisposed:
		return ErrDisposed
	case w.engine == nil:
		return ErrNotMounted
	}

	if err := w.engine.SetOption(w.build(in)); err != nil {
		return fmt.Errorf("apply %s option: %w", w.name, err)
	}
	w.state = StateUpdated
	return nil
}

func (w *Widget[T]) applyResize() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateDisposed || w.engine == nil {
		return
	}

	size := w.container.Size()
	if err := w.engine.Resize(size); err != nil {
		log.Printf("ERROR: resize chart %s to %s: %v", w.name, size, err)
	}
}

// Unmount cancels any pending resize, detaches the observer and disposes the
// engine. It is safe to call more than once and after a failed Mount.
func (w *Widget[T]) Unmount() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateDisposed {
		return
	}
	w.state = StateDisposed

	if w.resize != nil {
		w.resize.Stop()
	}
	if w.unobserve != nil {
		w.unobserve()
		w.unobserve = nil
	}
	if w.engine != nil {
		if err := w.engine.Dispose(); err != nil {
			log.Printf("ERROR: dispose chart %s: %v", w.name, err)
		}
		w.engine = nil
	}

	log.Printf("DEBUG: chart %s (%s) unmounted", w.name, w.id)
}
