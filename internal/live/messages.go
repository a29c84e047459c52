// Package live drives a browser page over a websocket: the page's chart
// engine, its element sizes and its location capability all appear on the
// Go side as chart.Engine, chart.Container and geo.Source.
package live

import (
	"github.com/i474232898/forecast-dashboard/internal/chart"
)

// Server to browser.
const (
	TypeLocate    = "locate"
	TypeInit      = "init"
	TypeSetOption = "setOption"
	TypeResize    = "resize"
	TypeDispose   = "dispose"
	TypeView      = "view"
)

// Browser to server.
const (
	TypeHello         = "hello"
	TypePosition      = "position"
	TypePositionError = "positionError"
	TypeSize          = "size"
	TypeEvent         = "event"
	TypeProfile       = "profile"
)

// Message is one websocket frame in either direction. Only the fields of
// its Type are set.
type Message struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`

	Option *chart.Option `json:"option,omitempty"`
	Width  int           `json:"width,omitempty"`
	Height int           `json:"height,omitempty"`

	Options *LocateOptions `json:"options,omitempty"`

	Geolocation *bool   `json:"geolocation,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Accuracy    float64 `json:"accuracy,omitempty"`
	Code        int     `json:"code,omitempty"`
	Message     string  `json:"message,omitempty"`

	Name       string          `json:"name,omitempty"`
	SeriesName string          `json:"seriesName,omitempty"`
	DataIndex  int             `json:"dataIndex,omitempty"`
	Value      float64         `json:"value,omitempty"`
	Selected   map[string]bool `json:"selected,omitempty"`

	Profile string `json:"profile,omitempty"`
	View    any    `json:"view,omitempty"`
}

// LocateOptions is the browser's PositionOptions.
type LocateOptions struct {
	EnableHighAccuracy bool  `json:"enableHighAccuracy"`
	Timeout            int64 `json:"timeout"`
	MaximumAge         int64 `json:"maximumAge"`
}

func (m Message) size() chart.Size {
	return chart.Size{Width: m.Width, Height: m.Height}
}
