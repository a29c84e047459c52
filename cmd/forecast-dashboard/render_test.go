package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/i474232898/forecast-dashboard/internal/config"
	"github.com/i474232898/forecast-dashboard/internal/dashboard"
	"github.com/i474232898/forecast-dashboard/internal/geo"
)

func TestHeadlessSource(t *testing.T) {
	if src := headlessSource(&config.AppConfig{}); src != nil {
		t.Errorf("expected no source, got %T", src)
	}

	static := headlessSource(&config.AppConfig{
		Location: &config.StaticLocation{Latitude: 46.05, Longitude: 14.5, Accuracy: 10},
		Address:  "Ljubljana, Slovenia",
	})
	if s, ok := static.(geo.StaticSource); !ok || s.Position.Latitude != 46.05 {
		t.Errorf("static location should win, got %#v", static)
	}

	if _, ok := headlessSource(&config.AppConfig{Address: "Ljubljana, Slovenia"}).(*geo.GeocodeSource); !ok {
		t.Error("expected a geocoding source for an address")
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, dashboard.Table{
		Columns: []string{"time", "score"},
		Rows:    [][]string{{"6/1 1:00", "0.50"}, {"6/1 2:00", "12.25"}},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", buf.String())
	}
	if !strings.Contains(lines[2], "12.25") {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestPrintDetailsError(t *testing.T) {
	var buf bytes.Buffer
	printDetails(&buf, dashboard.Details{Status: "errored", Message: geo.MessageUnsupported})
	if strings.TrimSpace(buf.String()) != geo.MessageUnsupported {
		t.Errorf("unexpected output %q", buf.String())
	}
}
