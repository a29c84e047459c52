// Package dashboard composes the location, profile and forecast sections of
// the page and keeps the two chart widgets in step with the latest forecast.
package dashboard

import (
	"log"
	"time"

	"github.com/i474232898/forecast-dashboard/internal/chart"
	"github.com/i474232898/forecast-dashboard/internal/forecast"
	"github.com/i474232898/forecast-dashboard/internal/series"
)

// Forecast section statuses.
const (
	ForecastIdle    = "idle"
	ForecastLoading = "loading"
	ForecastReady   = "ready"
	ForecastFailed  = "failed"
)

const MessageFetchFailed = "failed to fetch forecast data"

// Forecast is the forecast section.
type Forecast struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Title   string `json:"title,omitempty"`
	Updated string `json:"updated,omitempty"`
	Table   *Table `json:"table,omitempty"`
	// Missing counts values that failed to parse and chart as gaps.
	Missing int `json:"missing,omitempty"`
}

// Charts is the input of both chart widgets.
type Charts struct {
	Flow    chart.FlowInput
	Stacked chart.StackedInput
}

// Compose derives the forecast section and both chart inputs from data.
func Compose(data *forecast.Data, loc *time.Location, palette series.Palette) (Forecast, Charts) {
	fields := forecast.Fields()

	rows, err := series.BuildStackedSeries(data, fields, palette)
	if err != nil {
		log.Printf("ERROR: stacked chart colors: %v", err)
	}
	missing := series.CountMissing(rows)
	if missing > 0 {
		log.Printf("ERROR: %d forecast values could not be parsed", missing)
	}

	charts := Charts{
		Flow: chart.FlowInput{
			Fields: fields,
			Points: series.BuildFlowPoints(data, fields),
		},
		Stacked: chart.StackedInput{
			Fields: fields,
			Rows:   rows,
			Hours:  series.HourLabels(data),
		},
	}

	table := BuildTable(data, loc)
	section := Forecast{
		Status:  ForecastReady,
		Table:   &table,
		Missing: missing,
	}
	if data != nil {
		section.Title = data.Meta.LocalizedName + ", " + data.Meta.Country
		if data.FetchTime > 0 {
			section.Updated = data.FetchedAt().In(loc).Format("2006-01-02 15:04")
		}
	}
	return section, charts
}
