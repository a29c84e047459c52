// Package render is the headless rendering engine: it draws chart options to
// PNG frames held by an in-memory canvas.
package render

import (
	"sync"

	"github.com/i474232898/forecast-dashboard/internal/chart"
)

// Canvas is an in-memory container. It keeps the last frame drawn into it.
type Canvas struct {
	id string

	mu        sync.Mutex
	size      chart.Size
	frame     []byte
	observers map[int]func(chart.Size)
	next      int
}

// NewCanvas creates a canvas of the given size.
func NewCanvas(id string, size chart.Size) *Canvas {
	return &Canvas{
		id:        id,
		size:      size,
		observers: make(map[int]func(chart.Size)),
	}
}

func (c *Canvas) ID() string {
	return c.id
}

func (c *Canvas) Size() chart.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Canvas) Observe(fn func(chart.Size)) (func(), error) {
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

// SetSize changes the canvas size and notifies observers.
func (c *Canvas) SetSize(size chart.Size) {
	c.mu.Lock()
	if c.size == size {
		c.mu.Unlock()
		return
	}
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

// Frame returns the last PNG drawn, or nil.
func (c *Canvas) Frame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return nil
	}
	out := make([]byte, len(c.frame))
	copy(out, c.frame)
	return out
}

func (c *Canvas) setFrame(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
}
