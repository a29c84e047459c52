package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Views refreshes every connected dashboard.
type Views interface {
	RefreshAll(ctx context.Context) int
}

// Pruner drops expired cache entries.
type Pruner interface {
	Prune() int
}

// Scheduler periodically refreshes live dashboards and prunes the forecast cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	views     Views
	cache     Pruner
	expr      string
	timeout   time.Duration
}

// New creates a new Scheduler running on the cron expression.
func New(expr string, views Views, cache Pruner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		views:     views,
		cache:     cache,
		expr:      expr,
		timeout:   30 * time.Second,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.expr).Do(s.run); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("INFO: scheduler: refresh job scheduled on %q", s.expr)
	return nil
}

func (s *Scheduler) run() {
	log.Println("INFO: scheduler: running refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pruned := 0
	if s.cache != nil {
		pruned = s.cache.Prune()
	}
	refreshed := 0
	if s.views != nil {
		refreshed = s.views.RefreshAll(ctx)
	}

	log.Printf("INFO: scheduler: pruned %d cache entries, refreshed %d views", pruned, refreshed)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
