package chart

import (
	"errors"
	"fmt"
)

var (
	ErrDisposed   = errors.New("chart disposed")
	ErrNotMounted = errors.New("chart not mounted")
)

// Size is a container size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Container is the on-screen element an engine draws into.
type Container interface {
	ID() string
	Size() Size
	// Observe registers fn for size-change notifications until stop is called.
	Observe(fn func(Size)) (stop func(), err error)
}

// Engine is one rendering-engine instance bound to a container.
// After Dispose every other method returns ErrDisposed.
type Engine interface {
	SetOption(opt Option) error
	Resize(size Size) error
	Subscribe(events Events)
	Dispose() error
}

// Factory creates an engine instance against a container.
type Factory func(c Container) (Engine, error)

// Interaction event names.
const (
	EventClick               = "click"
	EventLegendSelectChanged = "legendselectchanged"
)

// ClickEvent is raised when a data element is clicked.
type ClickEvent struct {
	SeriesName string  `json:"seriesName"`
	DataIndex  int     `json:"dataIndex"`
	Value      float64 `json:"value"`
}

// LegendSelectEvent is raised when a legend entry is toggled.
type LegendSelectEvent struct {
	Name     string          `json:"name"`
	Selected map[string]bool `json:"selected"`
}

// Events is the set of interaction callbacks a widget can register.
// Nil callbacks are not subscribed.
type Events struct {
	OnClick               func(ClickEvent)
	OnLegendSelectChanged func(LegendSelectEvent)
}

// Names lists the event names with a registered callback.
func (e Events) Names() []string {
	var names []string
	if e.OnClick != nil {
		names = append(names, EventClick)
	}
	if e.OnLegendSelectChanged != nil {
		names = append(names, EventLegendSelectChanged)
	}
	return names
}

// Empty reports whether no callback is registered.
func (e Events) Empty() bool {
	return e.OnClick == nil && e.OnLegendSelectChanged == nil
}
