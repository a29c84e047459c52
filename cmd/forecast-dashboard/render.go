package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/i474232898/forecast-dashboard/internal/chart"
	"github.com/i474232898/forecast-dashboard/internal/config"
	"github.com/i474232898/forecast-dashboard/internal/dashboard"
	"github.com/i474232898/forecast-dashboard/internal/forecast"
	"github.com/i474232898/forecast-dashboard/internal/geo"
	"github.com/i474232898/forecast-dashboard/internal/prefs"
	"github.com/i474232898/forecast-dashboard/internal/series"
)

// renderDashboard locates the device once, prints the details and the table
// to stdout and writes one PNG per chart into outDir.
func renderDashboard(ctx context.Context, cfg *config.AppConfig, service *forecast.Service, profile *prefs.Profile, outDir string) error {
	state := geo.Locate(ctx, cfg.AppName, headlessSource(cfg), geo.DefaultOptions())
	details := dashboard.BuildDetails(state, cfg.Lang, cfg.Timezone, time.Now())
	printDetails(os.Stdout, details)
	if state.Status != geo.StatusLocated {
		return errors.New(state.Message)
	}

	q := forecast.Query{
		Lat:     state.Position.Latitude,
		Lon:     state.Position.Longitude,
		Lang:    cfg.Lang,
		TZ:      cfg.Timezone.String(),
		Profile: profile.Current(),
	}
	data, err := service.Forecast(ctx, q)
	if err != nil {
		log.Printf("ERROR: fetch forecast %s: %v", q.Key(), err)
		return errors.New(dashboard.MessageFetchFailed)
	}

	section, charts := dashboard.Compose(data, cfg.Timezone, series.DefaultPalette())
	fmt.Printf("\n%s (profile %s)\n", section.Title, q.Profile)
	if section.Updated != "" {
		fmt.Printf("Updated %s\n", section.Updated)
	}
	if section.Table != nil {
		printTable(os.Stdout, *section.Table)
	}

	size := chart.Size{Width: cfg.ChartWidth, Height: cfg.ChartHeight}
	for _, name := range dashboard.ChartNames() {
		frame, err := dashboard.RenderChart(name, charts, size)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, name+".png")
		if err := os.WriteFile(path, frame, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("INFO: wrote %s (%s)", path, size)
	}
	return nil
}

// headlessSource is the static position when configured, else the geocoded
// address. With neither the device has no location capability.
func headlessSource(cfg *config.AppConfig) geo.Source {
	if loc := cfg.Location; loc != nil {
		return geo.StaticSource{Position: geo.Position{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Accuracy:  loc.Accuracy,
		}}
	}
	if cfg.Address != "" {
		return geo.NewGeocodeSource(cfg.Address, cfg.GeocoderAPIKey, 0)
	}
	return nil
}

func printDetails(w io.Writer, d dashboard.Details) {
	if d.Message != "" {
		fmt.Fprintln(w, d.Message)
		return
	}
	fmt.Fprintf(w, "Latitude: %v\nLongitude: %v\nAccuracy: %v m\n", d.Latitude, d.Longitude, d.Accuracy)
	fmt.Fprintf(w, "Language: %s\nTime zone: %s\n", d.Language, d.Timezone)
	if d.Sunrise != "" || d.Sunset != "" {
		fmt.Fprintf(w, "Sunrise: %s\nSunset: %s\n", d.Sunrise, d.Sunset)
	}
}

func printTable(w io.Writer, t dashboard.Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t")+"\t")
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	tw.Flush()
}
