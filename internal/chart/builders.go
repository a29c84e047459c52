package chart

import (
	"github.com/i474232898/forecast-dashboard/internal/forecast"
	"github.com/i474232898/forecast-dashboard/internal/series"
)

// Builder turns widget input into a fresh Option. Builders must be pure.
type Builder[T any] func(T) Option

// FlowInput feeds the theme-river chart.
type FlowInput struct {
	Fields []forecast.Field
	Points []series.FlowPoint
}

// StackedInput feeds the stacked-area chart.
type StackedInput struct {
	Fields []forecast.Field
	Rows   []series.Stacked
	Hours  []string
}

func axisTooltip() Tooltip {
	return Tooltip{
		Trigger: "axis",
		AxisPointer: &AxisPointer{
			Type: "line",
			LineStyle: &LineStyle{
				Color: "rgba(0,0,0,0.2)",
				Width: 1,
				Type:  "solid",
			},
		},
	}
}

func legendOf(fields []forecast.Field) Legend {
	data := make([]string, len(fields))
	for i, f := range fields {
		data[i] = string(f)
	}
	return Legend{Data: data}
}

// FlowOption builds the theme-river option.
func FlowOption(in FlowInput) Option {
	points := make(FlowData, len(in.Points))
	copy(points, in.Points)

	return Option{
		Tooltip: axisTooltip(),
		Legend:  legendOf(in.Fields),
		SingleAxis: &SingleAxis{
			Type: "time",
			AxisPointer: &AxisPointer{
				Animation: true,
				Label:     &Label{Show: true},
			},
			SplitLine: &SplitLine{
				Show: true,
				LineStyle: &LineStyle{
					Type:    "dashed",
					Opacity: 0.8,
				},
			},
		},
		Series: []Series{
			{
				Type: SeriesThemeRiver,
				Emphasis: &Emphasis{
					ItemStyle: &ItemStyle{
						ShadowBlur:  20,
						ShadowColor: "rgba(0, 0, 0, 0.8)",
					},
				},
				Data: points,
			},
		},
	}
}

// StackedOption builds the stacked-area option. Each row keeps the color it
// was paired with; the top-level color list mirrors the row order.
func StackedOption(in StackedInput) Option {
	hours := make([]string, len(in.Hours))
	copy(hours, in.Hours)

	colors := make([]string, 0, len(in.Rows))
	list := make([]Series, 0, len(in.Rows))
	for _, row := range in.Rows {
		values := make(Values, len(row.Values))
		copy(values, row.Values)

		colors = append(colors, row.Color)
		list = append(list, Series{
			Name:       string(row.Field),
			Type:       SeriesLine,
			Stack:      "Total",
			Smooth:     true,
			ShowSymbol: boolPtr(false),
			LineStyle:  &LineStyle{Width: 0},
			AreaStyle:  &AreaStyle{Opacity: 0.8, Color: row.Color},
			Emphasis:   &Emphasis{Focus: "series"},
			Data:       values,
		})
	}

	return Option{
		Color:   colors,
		Tooltip: axisTooltip(),
		Legend:  legendOf(in.Fields),
		XAxis: []Axis{
			{Type: "category", BoundaryGap: boolPtr(false), Data: hours},
		},
		YAxis: []Axis{
			{Type: "value"},
		},
		Series: list,
	}
}
