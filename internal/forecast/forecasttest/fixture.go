// Package forecasttest builds forecast fixtures for tests.
package forecasttest

import (
	"fmt"
	"time"

	"github.com/i474232898/forecast-dashboard/internal/forecast"
)

// Start is the first hour of every fixture.
var Start = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

// Data returns a forecast with the given number of hours. The weighted value
// of field index f at hour h is (h*10+f)/100, annotated with a raw value.
func Data(hours int) *forecast.Data {
	data := &forecast.Data{
		FetchTime: Start.UnixMilli(),
		Meta:      forecast.Meta{Country: "SI", LocalizedName: "Ljubljana"},
		Hours:     make([]forecast.Hour, 0, hours),
	}

	for h := 0; h < hours; h++ {
		hour := forecast.Hour{
			Time:   Start.Add(time.Duration(h) * time.Hour).Format(time.RFC3339),
			Score:  float64(h),
			Values: make(map[forecast.Field]string),
		}
		for f, field := range forecast.Fields() {
			hour.Values[field] = fmt.Sprintf("%.2f (%d)", Value(h, f), h+f)
		}
		data.Hours = append(data.Hours, hour)
	}

	return data
}

// Value is the parsed weighted value Data stores for hour h and field index f.
func Value(h, f int) float64 {
	return float64(h*10+f) / 100
}
