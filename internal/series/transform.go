// Package series converts hourly forecast records into the two shapes the
// charts consume: row-oriented flow points and column-oriented stacked series.
package series

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/i474232898/forecast-dashboard/internal/forecast"
)

// rawAnnotation matches the trailing " (raw value)" part of a weighted value.
var rawAnnotation = regexp.MustCompile(` \(.*\)`)

// ParseWeightedValue strips the raw-value annotation from a weighted field and
// parses the remainder. Non-numeric input yields NaN.
func ParseWeightedValue(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(rawAnnotation.ReplaceAllString(raw, "")), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FlowPoint is one (timestamp, value, field) sample of the theme river.
type FlowPoint struct {
	Time  string
	Value float64
	Field forecast.Field
}

// MarshalJSON encodes the point as the [time, value, name] tuple the browser
// engine expects. NaN is written as "-", the engine's empty-value marker.
func (p FlowPoint) MarshalJSON() ([]byte, error) {
	var value any = p.Value
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		value = "-"
	}
	return json.Marshal([]any{p.Time, value, string(p.Field)})
}

// BuildFlowPoints emits one point per hour and field, hour-major.
func BuildFlowPoints(data *forecast.Data, fields []forecast.Field) []FlowPoint {
	if data == nil {
		return []FlowPoint{}
	}

	points := make([]FlowPoint, 0, len(data.Hours)*len(fields))
	for _, hour := range data.Hours {
		for _, f := range fields {
			points = append(points, FlowPoint{
				Time:  hour.Time,
				Value: ParseWeightedValue(hour.Value(f)),
				Field: f,
			})
		}
	}
	return points
}

// Stacked is one row of the stacked model: every hour's value for one field.
type Stacked struct {
	Field  forecast.Field
	Color  string
	Values []float64
}

// BuildStackedSeries emits one row per field, each holding every hour's value
// in chronological order, and pairs each row with a palette color.
// The rows are always complete; ErrPaletteExhausted reports rows left without
// a color.
func BuildStackedSeries(data *forecast.Data, fields []forecast.Field, palette Palette) ([]Stacked, error) {
	if data == nil {
		return []Stacked{}, nil
	}

	colors, err := palette.Assign(fields)

	rows := make([]Stacked, 0, len(fields))
	for i, f := range fields {
		values := make([]float64, 0, len(data.Hours))
		for _, hour := range data.Hours {
			values = append(values, ParseWeightedValue(hour.Value(f)))
		}
		rows = append(rows, Stacked{
			Field:  f,
			Color:  colors[i],
			Values: values,
		})
	}
	return rows, err
}

// HourLabels returns the category-axis labels for the stacked chart.
func HourLabels(data *forecast.Data) []string {
	if data == nil {
		return []string{}
	}

	labels := make([]string, 0, len(data.Hours))
	for _, hour := range data.Hours {
		ts, err := hour.Timestamp()
		if err != nil {
			labels = append(labels, hour.Time)
			continue
		}
		labels = append(labels, ts.Format("15:04"))
	}
	return labels
}

// CountMissing reports how many values in rows failed to parse.
func CountMissing(rows []Stacked) int {
	n := 0
	for _, r := range rows {
		for _, v := range r.Values {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}
