package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/forecast-dashboard/internal/api/http"
	"github.com/i474232898/forecast-dashboard/internal/chart"
	"github.com/i474232898/forecast-dashboard/internal/config"
	"github.com/i474232898/forecast-dashboard/internal/dashboard"
	"github.com/i474232898/forecast-dashboard/internal/forecast"
	"github.com/i474232898/forecast-dashboard/internal/live"
	"github.com/i474232898/forecast-dashboard/internal/prefs"
	"github.com/i474232898/forecast-dashboard/internal/scheduler"
	"github.com/i474232898/forecast-dashboard/internal/store"
)

func main() {
	var (
		renderOnce = flag.Bool("render", false, "Render the dashboard once to stdout and PNG files, then exit")
		outDir     = flag.String("out", ".", "Directory for the PNG files written by -render")
	)
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Persisted profile selection.
	prefStore, err := prefs.Open(cfg.PrefsDSN)
	if err != nil {
		log.Fatalf("failed to open preferences: %v", err)
	}
	defer prefStore.Close()

	profile, err := prefs.LoadProfile(context.Background(), prefStore)
	if err != nil {
		log.Fatalf("failed to load profile: %v", err)
	}

	// Backend client with resilience (rate limit + circuit breaker), cached
	// until the top of each hour.
	client := forecast.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.ForecastBaseURL, forecast.ClientOptions{
		MaxRetries: cfg.MaxRetries,
		RPS:        cfg.RequestsPerSec,
		Burst:      cfg.Burst,
	})
	service := forecast.NewService(client, store.NewMemoryStore(256))

	if *renderOnce {
		if err := renderDashboard(context.Background(), cfg, service, profile, *outDir); err != nil {
			log.Fatalf("render failed: %v", err)
		}
		return
	}

	hub := live.NewHub()

	// Scheduler that refreshes every live page and prunes the cache.
	sched := scheduler.New(cfg.RefreshCron, hub, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "forecast-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "forecast-dashboard",
			"sessions": hub.Len(),
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Forecasts:   service,
		Profile:     profile,
		Lang:        cfg.Lang,
		Timezone:    cfg.Timezone.String(),
		ChartWidth:  cfg.ChartWidth,
		ChartHeight: cfg.ChartHeight,
	})

	// The websocket endpoint needs a net/http connection to hijack, so the
	// mux sits in front of fiber.
	mux := http.NewServeMux()
	mux.Handle("/ws", live.Handler(func(ctx context.Context, s *live.Session) {
		serveSession(ctx, s, cfg, service, profile, hub)
	}))
	mux.Handle("/", adaptor.FiberApp(app))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// serveSession mounts one dashboard view on a browser page and keeps it until
// the page goes away.
func serveSession(ctx context.Context, s *live.Session, cfg *config.AppConfig, service *forecast.Service, profile *prefs.Profile, hub *live.Hub) {
	view := dashboard.New(dashboard.Config{
		AppName:  cfg.AppName,
		Lang:     cfg.Lang,
		Location: cfg.Timezone,
	}, dashboard.Deps{
		Forecasts:        service,
		Profile:          profile,
		Source:           s.Source(),
		Factory:          s.Factory(),
		FlowContainer:    s.Container(dashboard.ChartFlow),
		StackedContainer: s.Container(dashboard.ChartStacked),
		Publish: func(snap dashboard.Snapshot) {
			if err := s.Send(live.Message{Type: live.TypeView, View: snap}); err != nil && !errors.Is(err, live.ErrClosed) {
				log.Printf("ERROR: live session %s: send view: %v", s.ID(), err)
			}
		},
		Events: chart.Events{
			OnClick: func(e chart.ClickEvent) {
				log.Printf("DEBUG: live session %s: click %s[%d] = %v", s.ID(), e.SeriesName, e.DataIndex, e.Value)
			},
			OnLegendSelectChanged: func(e chart.LegendSelectEvent) {
				log.Printf("DEBUG: live session %s: legend %s toggled", s.ID(), e.Name)
			},
		},
	})

	s.OnProfile(func(name string) {
		if err := view.SetProfile(ctx, name); err != nil {
			log.Printf("ERROR: live session %s: select profile: %v", s.ID(), err)
		}
	})

	if err := view.Mount(ctx); err != nil {
		log.Printf("ERROR: live session %s: mount: %v", s.ID(), err)
	}
	defer view.Unmount()
	hub.Add(s.ID(), view)
	defer hub.Remove(s.ID())

	<-ctx.Done()
}
