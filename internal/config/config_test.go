package config

import (
	"os"
	"testing"
	"time"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" || cfg.AppName != "slike" {
		t.Errorf("unexpected server defaults %+v", cfg)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("expected no retries by default, got %d", cfg.MaxRetries)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.RefreshCron != "0 * * * *" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Location != nil {
		t.Errorf("expected no static location, got %+v", cfg.Location)
	}
	if cfg.Timezone != time.UTC {
		t.Errorf("expected UTC, got %v", cfg.Timezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOCATION_LAT", "46.05")
	t.Setenv("LOCATION_LON", "14.5")
	t.Setenv("LOCATION_ACCURACY", "25")
	t.Setenv("TIMEZONE", "Europe/Ljubljana")
	t.Setenv("FORECAST_RPS", "0.5")
	t.Setenv("CHART_WIDTH", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Location == nil || cfg.Location.Latitude != 46.05 || cfg.Location.Accuracy != 25 {
		t.Errorf("unexpected location %+v", cfg.Location)
	}
	if cfg.Timezone.String() != "Europe/Ljubljana" {
		t.Errorf("unexpected timezone %v", cfg.Timezone)
	}
	if cfg.RequestsPerSec != 0.5 || cfg.ChartWidth != 1024 {
		t.Errorf("unexpected overrides %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "half location", env: map[string]string{"LOCATION_LAT": "46.05"}},
		{name: "latitude out of range", env: map[string]string{"LOCATION_LAT": "120", "LOCATION_LON": "14.5"}},
		{name: "bad timeout", env: map[string]string{"HTTP_TIMEOUT": "soon"}},
		{name: "bad timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{name: "bad base url", env: map[string]string{"FORECAST_BASE_URL": "not a url"}},
		{name: "tiny chart", env: map[string]string{"CHART_HEIGHT": "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
