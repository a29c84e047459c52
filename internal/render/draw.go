package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/forecast-dashboard/internal/chart"
)

var (
	ErrEmptyOption       = errors.New("render: option has no series")
	ErrUnsupportedSeries = errors.New("render: unsupported series type")
)

const maxTicks = 12

// Draw renders opt to a PNG of the given size.
func Draw(opt chart.Option, size chart.Size) ([]byte, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("render: invalid size %s", size)
	}
	if len(opt.Series) == 0 {
		return nil, ErrEmptyOption
	}

	var (
		ch     gochart.Chart
		legend []gochart.Series
		err    error
	)
	switch opt.Series[0].Type {
	case chart.SeriesThemeRiver:
		ch, legend, err = themeRiver(opt)
	case chart.SeriesLine:
		ch, legend, err = stackedArea(opt)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedSeries, opt.Series[0].Type)
	}
	if err != nil {
		return nil, err
	}

	ch.Width = size.Width
	ch.Height = size.Height
	ch.Background = gochart.Style{Padding: gochart.Box{Top: 20, Left: 180, Right: 16, Bottom: 16}}

	// The legend lists fields only, not the helper series used for layering.
	legendChart := ch
	legendChart.Series = legend
	ch.Elements = []gochart.Renderable{gochart.LegendLeft(&legendChart)}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", opt.Series[0].Type, err)
	}
	return buf.Bytes(), nil
}

// themeRiver draws the bands centered on zero. Bands are painted top-down as
// fills to the bottom edge; a final background fill below the lowest band
// erases everything under the river.
func themeRiver(opt chart.Option) (gochart.Chart, []gochart.Series, error) {
	points, ok := opt.Series[0].Data.(chart.FlowData)
	if !ok {
		return gochart.Chart{}, nil, fmt.Errorf("render: theme river data is %T", opt.Series[0].Data)
	}

	fields := append([]string(nil), opt.Legend.Data...)
	fieldIndex := make(map[string]int, len(fields))
	for i, f := range fields {
		fieldIndex[f] = i
	}

	var xs []float64
	timeIndex := make(map[string]int)
	for _, p := range points {
		if _, ok := fieldIndex[string(p.Field)]; !ok {
			fieldIndex[string(p.Field)] = len(fields)
			fields = append(fields, string(p.Field))
		}
		if _, ok := timeIndex[p.Time]; !ok {
			timeIndex[p.Time] = len(xs)
			xs = append(xs, timeValue(p.Time, len(xs)))
		}
	}
	if len(xs) == 0 {
		return gochart.Chart{}, nil, ErrEmptyOption
	}

	values := make([][]float64, len(fields))
	for i := range values {
		values[i] = make([]float64, len(xs))
	}
	for _, p := range points {
		values[fieldIndex[string(p.Field)]][timeIndex[p.Time]] = finite(p.Value)
	}

	baseline := make([]float64, len(xs))
	half := 0.0
	for t := range xs {
		total := 0.0
		for f := range fields {
			total += values[f][t]
		}
		baseline[t] = -total / 2
		half = math.Max(half, total/2)
	}
	if half == 0 {
		half = 1
	}

	upper := cumulative(values, baseline)
	xs = padX(xs, float64(time.Hour))

	var drawn, legend []gochart.Series
	for i := len(fields) - 1; i >= 0; i-- {
		drawn = append(drawn, band(fields[i], xs, upper[i], gochart.GetDefaultColor(i)))
	}
	drawn = append(drawn, gochart.ContinuousSeries{
		XValues: xs,
		YValues: padY(baseline),
		Style:   gochart.Style{FillColor: drawing.ColorWhite},
	})
	for i := range fields {
		legend = append(legend, drawn[len(fields)-1-i])
	}

	ch := gochart.Chart{
		XAxis:  gochart.XAxis{ValueFormatter: gochart.TimeHourValueFormatter},
		YAxis:  gochart.YAxis{Range: &gochart.ContinuousRange{Min: -half, Max: half}},
		Series: drawn,
	}
	return ch, legend, nil
}

// stackedArea draws cumulative fills, top layer first so lower layers stay
// visible on top of it.
func stackedArea(opt chart.Option) (gochart.Chart, []gochart.Series, error) {
	var labels []string
	if len(opt.XAxis) > 0 {
		labels = opt.XAxis[0].Data
	}

	values := make([][]float64, len(opt.Series))
	hours := len(labels)
	for i, s := range opt.Series {
		v, ok := s.Data.(chart.Values)
		if !ok {
			return gochart.Chart{}, nil, fmt.Errorf("render: line data is %T", s.Data)
		}
		values[i] = make([]float64, len(v))
		for t, f := range v {
			values[i][t] = finite(f)
		}
		if len(v) > hours {
			hours = len(v)
		}
	}
	if hours == 0 {
		return gochart.Chart{}, nil, ErrEmptyOption
	}
	for i := range values {
		for len(values[i]) < hours {
			values[i] = append(values[i], 0)
		}
	}

	upper := cumulative(values, make([]float64, hours))
	lo, hi := 0.0, 0.0
	for _, row := range upper {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	xs := make([]float64, hours)
	for t := range xs {
		xs[t] = float64(t)
	}
	ticks := categoryTicks(labels, hours)
	xs = padX(xs, 1)
	// go-chart takes the x range from the ticks, so they must span every sample.
	if last := xs[len(xs)-1]; ticks[len(ticks)-1].Value < last {
		ticks = append(ticks, gochart.Tick{Value: last})
	}

	drawn := make([]gochart.Series, 0, len(opt.Series))
	for i := len(opt.Series) - 1; i >= 0; i-- {
		color := gochart.GetDefaultColor(i)
		if opt.Series[i].AreaStyle != nil {
			color = parseColor(opt.Series[i].AreaStyle.Color, color)
		}
		drawn = append(drawn, band(opt.Series[i].Name, xs, upper[i], color))
	}
	legend := make([]gochart.Series, len(drawn))
	for i := range drawn {
		legend[i] = drawn[len(drawn)-1-i]
	}

	ch := gochart.Chart{
		XAxis: gochart.XAxis{
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
		},
		YAxis:  gochart.YAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Series: drawn,
	}
	return ch, legend, nil
}

func band(name string, xs, ys []float64, color drawing.Color) gochart.ContinuousSeries {
	return gochart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: padY(ys),
		Style: gochart.Style{
			StrokeColor: color,
			StrokeWidth: 1,
			FillColor:   color.WithAlpha(204),
		},
	}
}

// cumulative returns, per row, base plus the running sum of rows up to it.
func cumulative(rows [][]float64, base []float64) [][]float64 {
	out := make([][]float64, len(rows))
	running := append([]float64(nil), base...)
	for i, row := range rows {
		for t := range running {
			if t < len(row) {
				running[t] += row[t]
			}
		}
		out[i] = append([]float64(nil), running...)
	}
	return out
}

// categoryTicks labels at most maxTicks+1 hours. The last hour always gets a
// tick.
func categoryTicks(labels []string, n int) []gochart.Tick {
	step := (n + maxTicks - 1) / maxTicks
	if step < 1 {
		step = 1
	}
	label := func(t int) string {
		if t < len(labels) {
			return labels[t]
		}
		return fmt.Sprint(t)
	}

	ticks := make([]gochart.Tick, 0, maxTicks+2)
	for t := 0; t < n; t += step {
		ticks = append(ticks, gochart.Tick{Value: float64(t), Label: label(t)})
	}
	if last := n - 1; last > 0 && ticks[len(ticks)-1].Value < float64(last) {
		ticks = append(ticks, gochart.Tick{Value: float64(last), Label: label(last)})
	}
	return ticks
}

// go-chart needs two distinct x values; a single sample is widened by step.
func padX(xs []float64, step float64) []float64 {
	if len(xs) == 1 {
		return []float64{xs[0], xs[0] + step}
	}
	return xs
}

func padY(ys []float64) []float64 {
	if len(ys) == 1 {
		return []float64{ys[0], ys[0]}
	}
	return ys
}

func timeValue(raw string, index int) float64 {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return float64(index) * float64(time.Hour)
	}
	return gochart.TimeToFloat64(ts)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseColor(css string, fallback drawing.Color) drawing.Color {
	hex := strings.TrimPrefix(strings.TrimSpace(css), "#")
	if len(hex) != 6 && len(hex) != 3 {
		return fallback
	}
	return drawing.ColorFromHex(hex)
}
