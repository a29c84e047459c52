// Package chart drives a rendering engine bound to one on-screen container:
// it builds a fresh option value per render and owns the engine's
// mount/resize/update/dispose cycle.
package chart

import (
	"encoding/json"
	"math"

	"github.com/i474232898/forecast-dashboard/internal/series"
)

// Option is a complete engine option. The JSON form follows the browser
// engine's option schema; engines receive a fresh value on every apply and
// must treat it as replacing the previous one.
type Option struct {
	Color      []string    `json:"color,omitempty"`
	Tooltip    Tooltip     `json:"tooltip"`
	Legend     Legend      `json:"legend"`
	SingleAxis *SingleAxis `json:"singleAxis,omitempty"`
	XAxis      []Axis      `json:"xAxis,omitempty"`
	YAxis      []Axis      `json:"yAxis,omitempty"`
	Series     []Series    `json:"series"`
}

type Tooltip struct {
	Trigger     string       `json:"trigger"`
	AxisPointer *AxisPointer `json:"axisPointer,omitempty"`
}

type AxisPointer struct {
	Type      string     `json:"type,omitempty"`
	Animation bool       `json:"animation,omitempty"`
	Label     *Label     `json:"label,omitempty"`
	LineStyle *LineStyle `json:"lineStyle,omitempty"`
}

type Label struct {
	Show bool `json:"show"`
}

type LineStyle struct {
	Color   string  `json:"color,omitempty"`
	Width   float64 `json:"width"`
	Type    string  `json:"type,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

type Legend struct {
	Data []string `json:"data"`
}

type SingleAxis struct {
	Type        string       `json:"type"`
	AxisPointer *AxisPointer `json:"axisPointer,omitempty"`
	SplitLine   *SplitLine   `json:"splitLine,omitempty"`
}

type SplitLine struct {
	Show      bool       `json:"show"`
	LineStyle *LineStyle `json:"lineStyle,omitempty"`
}

type Axis struct {
	Type        string   `json:"type"`
	BoundaryGap *bool    `json:"boundaryGap,omitempty"`
	Data        []string `json:"data,omitempty"`
}

type AreaStyle struct {
	Opacity float64 `json:"opacity"`
	Color   string  `json:"color,omitempty"`
}

type ItemStyle struct {
	ShadowBlur  float64 `json:"shadowBlur,omitempty"`
	ShadowColor string  `json:"shadowColor,omitempty"`
}

type Emphasis struct {
	Focus     string     `json:"focus,omitempty"`
	ItemStyle *ItemStyle `json:"itemStyle,omitempty"`
}

// Series types understood by the engines.
const (
	SeriesThemeRiver = "themeRiver"
	SeriesLine       = "line"
)

type Series struct {
	Name       string     `json:"name,omitempty"`
	Type       string     `json:"type"`
	Stack      string     `json:"stack,omitempty"`
	Smooth     bool       `json:"smooth,omitempty"`
	ShowSymbol *bool      `json:"showSymbol,omitempty"`
	LineStyle  *LineStyle `json:"lineStyle,omitempty"`
	AreaStyle  *AreaStyle `json:"areaStyle,omitempty"`
	Emphasis   *Emphasis  `json:"emphasis,omitempty"`
	Data       SeriesData `json:"data"`
}

// SeriesData is the payload of one series: FlowData or Values.
type SeriesData interface {
	seriesData()
}

// FlowData is theme-river data.
type FlowData []series.FlowPoint

func (FlowData) seriesData() {}

// Values is one numeric value per category. NaN encodes as "-".
type Values []float64

func (Values) seriesData() {}

// MarshalJSON writes NaN and infinities as the engine's empty-value marker.
func (v Values) MarshalJSON() ([]byte, error) {
	out := make([]any, len(v))
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			out[i] = "-"
			continue
		}
		out[i] = f
	}
	return json.Marshal(out)
}

func boolPtr(b bool) *bool {
	return &b
}
