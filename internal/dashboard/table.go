package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/i474232898/forecast-dashboard/internal/forecast"
)

// Table is the hourly forecast table: time, every field, score.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// TableColumns returns the header row.
func TableColumns() []string {
	cols := []string{"time"}
	for _, f := range forecast.Fields() {
		cols = append(cols, string(f))
	}
	return append(cols, "score")
}

// BuildTable renders one row per hour with times shown in loc.
func BuildTable(data *forecast.Data, loc *time.Location) Table {
	t := Table{Columns: TableColumns(), Rows: [][]string{}}
	if data == nil {
		return t
	}

	for _, hour := range data.Hours {
		row := make([]string, 0, len(t.Columns))
		row = append(row, hourLabel(hour, loc))
		for _, f := range forecast.Fields() {
			row = append(row, hour.Value(f))
		}
		row = append(row, strconv.FormatFloat(hour.Score, 'f', 2, 64))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// hourLabel formats an hour as "M/D H:00".
func hourLabel(hour forecast.Hour, loc *time.Location) string {
	ts, err := hour.Timestamp()
	if err != nil {
		return hour.Time
	}
	ts = ts.In(loc)
	return fmt.Sprintf("%d/%d %d:00", int(ts.Month()), ts.Day(), ts.Hour())
}
