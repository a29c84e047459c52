package live

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/i474232898/forecast-dashboard/internal/chart"
	"github.com/i474232898/forecast-dashboard/internal/geo"
)

// Container is a page element. Its size follows the page's size messages.
type Container struct {
	id string

	mu        sync.Mutex
	size      chart.Size
	observers map[int]func(chart.Size)
	next      int
}

func (c *Container) ID() string {
	return c.id
}

func (c *Container) Size() chart.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Container) Observe(fn func(chart.Size)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}, nil
}

func (c *Container) resized(size chart.Size) {
	c.mu.Lock()
	c.size = size
	fns := make([]func(chart.Size), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(size)
	}
}

// Engine is the page's rendering engine instance for one element.
type Engine struct {
	session *Session
	target  string

	mu       sync.Mutex
	events   chart.Events
	disposed bool
}

func (e *Engine) SetOption(opt chart.Option) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return chart.ErrDisposed
	}
	return e.session.Send(Message{Type: TypeSetOption, Target: e.target, Option: &opt})
}

func (e *Engine) Resize(size chart.Size) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return chart.ErrDisposed
	}
	return e.session.Send(Message{Type: TypeResize, Target: e.target, Width: size.Width, Height: size.Height})
}

func (e *Engine) Subscribe(events chart.Events) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = events
}

func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return chart.ErrDisposed
	}
	e.disposed = true
	e.events = chart.Events{}
	e.session.dropEngine(e.target)

	err := e.session.Send(Message{Type: TypeDispose, Target: e.target})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (e *Engine) emit(msg Message) {
	e.mu.Lock()
	events := e.events
	disposed := e.disposed
	e.mu.Unlock()
	if disposed {
		return
	}

	switch msg.Name {
	case chart.EventClick:
		if events.OnClick != nil {
			events.OnClick(chart.ClickEvent{SeriesName: msg.SeriesName, DataIndex: msg.DataIndex, Value: msg.Value})
		}
	case chart.EventLegendSelectChanged:
		if events.OnLegendSelectChanged != nil {
			events.OnLegendSelectChanged(chart.LegendSelectEvent{Name: msg.SeriesName, Selected: msg.Selected})
		}
	default:
		log.Printf("DEBUG: chart %s: dropped unknown event %q", e.target, msg.Name)
	}
}

// Source returns the page's location capability.
func (s *Session) Source() geo.Source {
	return sessionSource{s}
}

type sessionSource struct {
	s *Session
}

func (src sessionSource) Available() bool {
	src.s.mu.Lock()
	defer src.s.mu.Unlock()
	return src.s.geolocation
}

// CurrentPosition asks the page for one fix and waits for the answer.
func (src sessionSource) CurrentPosition(ctx context.Context, opts geo.Options) (geo.Position, error) {
	s := src.s
	ch := make(chan Message, 1)

	s.mu.Lock()
	s.locate = ch
	s.mu.Unlock()

	err := s.Send(Message{Type: TypeLocate, Options: &LocateOptions{
		EnableHighAccuracy: opts.HighAccuracy,
		Timeout:            opts.Timeout.Milliseconds(),
		MaximumAge:         opts.MaximumAge.Milliseconds(),
	}})
	if err != nil {
		return geo.Position{}, err
	}

	select {
	case <-ctx.Done():
		s.mu.Lock()
		if s.locate == ch {
			s.locate = nil
		}
		s.mu.Unlock()
		return geo.Position{}, ctx.Err()
	case <-s.done:
		return geo.Position{}, ErrClosed
	case msg := <-ch:
		if msg.Type == TypePositionError {
			return geo.Position{}, &geo.PositionError{Code: geo.Code(msg.Code), Message: msg.Message}
		}
		return geo.Position{Latitude: msg.Latitude, Longitude: msg.Longitude, Accuracy: msg.Accuracy}, nil
	}
}
