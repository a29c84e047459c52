package render

import (
	"fmt"
	"log"
	"sync"

	"github.com/i474232898/forecast-dashboard/internal/chart"
)

// Engine draws options into a Canvas with go-chart.
type Engine struct {
	canvas *Canvas

	mu       sync.Mutex
	option   *chart.Option
	events   chart.Events
	draws    int
	disposed bool
}

// NewEngine is a chart.Factory. The container must be a *Canvas.
func NewEngine(c chart.Container) (chart.Engine, error) {
	canvas, ok := c.(*Canvas)
	if !ok {
		return nil, fmt.Errorf("render: container %s is not a canvas", c.ID())
	}
	return &Engine{canvas: canvas}, nil
}

// SetOption replaces the current option and redraws.
func (e *Engine) SetOption(opt chart.Option) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return chart.ErrDisposed
	}
	e.option = &opt
	return e.draw(e.canvas.Size())
}

// Resize redraws the current option at size.
func (e *Engine) Resize(size chart.Size) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return chart.ErrDisposed
	}
	if e.option == nil {
		return nil
	}
	return e.draw(size)
}

// Subscribe keeps the callbacks. Raster frames raise no interaction events.
func (e *Engine) Subscribe(events chart.Events) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = events
}

// Dispose drops the frame and rejects later calls.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return chart.ErrDisposed
	}
	e.disposed = true
	e.option = nil
	e.events = chart.Events{}
	e.canvas.setFrame(nil)
	return nil
}

// Draws reports how many frames were drawn.
func (e *Engine) Draws() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draws
}

func (e *Engine) draw(size chart.Size) error {
	frame, err := Draw(*e.option, size)
	if err != nil {
		return err
	}
	e.draws++
	e.canvas.setFrame(frame)
	log.Printf("DEBUG: drew %s frame on %s (%d bytes)", size, e.canvas.ID(), len(frame))
	return nil
}
