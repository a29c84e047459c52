package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port    string `validate:"required,numeric"`
	AppName string `validate:"required"`

	// Forecast backend.
	ForecastBaseURL string        `validate:"required,url"`
	HTTPTimeout     time.Duration `validate:"gt=0"`
	MaxRetries      int           `validate:"gte=0,lte=10"`
	RequestsPerSec  float64       `validate:"gte=0"`
	Burst           int           `validate:"gte=0"`

	// PrefsDSN is a SQLite path or a postgres:// URL.
	PrefsDSN string `validate:"required"`

	// Headless mode position: a static fix, or an address to geocode.
	Location       *StaticLocation
	Address        string
	GeocoderAPIKey string

	Lang     string `validate:"required"`
	Timezone *time.Location

	ChartWidth  int `validate:"gte=100,lte=4096"`
	ChartHeight int `validate:"gte=100,lte=4096"`

	RefreshCron string `validate:"required"`
}

// StaticLocation is a fixed device position.
type StaticLocation struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
	Accuracy  float64 `validate:"gte=0"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppName = getenvDefault("APP_NAME", "slike")

	cfg.ForecastBaseURL = getenvDefault("FORECAST_BASE_URL", "http://localhost:8000")
	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// No automatic retry unless asked for.
	cfg.MaxRetries = getenvInt("FORECAST_MAX_RETRIES", 0)
	cfg.RequestsPerSec, err = getenvFloat("FORECAST_RPS", 2)
	if err != nil {
		return nil, err
	}
	cfg.Burst = getenvInt("FORECAST_BURST", 4)

	cfg.PrefsDSN = getenvDefault("PREFS_DSN", "prefs.db")

	loc, err := loadStaticLocation()
	if err != nil {
		return nil, err
	}
	cfg.Location = loc
	cfg.Address = os.Getenv("LOCATION_ADDRESS")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.Lang = getenvDefault("LANG_TAG", "en-US")
	tz, err := time.LoadLocation(getenvDefault("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	cfg.ChartWidth = getenvInt("CHART_WIDTH", 800)
	cfg.ChartHeight = getenvInt("CHART_HEIGHT", 350)
	cfg.RefreshCron = getenvDefault("REFRESH_CRON", "0 * * * *")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadStaticLocation returns nil unless both LOCATION_LAT and LOCATION_LON are set.
func loadStaticLocation() (*StaticLocation, error) {
	lat, lon := os.Getenv("LOCATION_LAT"), os.Getenv("LOCATION_LON")
	if lat == "" && lon == "" {
		return nil, nil
	}
	if lat == "" || lon == "" {
		return nil, fmt.Errorf("LOCATION_LAT and LOCATION_LON must be set together")
	}

	loc := &StaticLocation{}
	var err error
	if loc.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
		return nil, fmt.Errorf("invalid LOCATION_LAT: %w", err)
	}
	if loc.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
		return nil, fmt.Errorf("invalid LOCATION_LON: %w", err)
	}
	if loc.Accuracy, err = getenvFloat("LOCATION_ACCURACY", 0); err != nil {
		return nil, err
	}
	return loc, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
