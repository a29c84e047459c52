package scheduler

import (
	"context"
	"testing"
)

type fakeViews struct {
	calls int
	ctxOK bool
}

func (f *fakeViews) RefreshAll(ctx context.Context) int {
	f.calls++
	_, f.ctxOK = ctx.Deadline()
	return 3
}

type fakeCache struct {
	calls int
}

func (f *fakeCache) Prune() int {
	f.calls++
	return 2
}

func TestRunRefreshesAndPrunes(t *testing.T) {
	views, cache := &fakeViews{}, &fakeCache{}
	s := New("0 * * * *", views, cache)

	s.run()

	if views.calls != 1 || cache.calls != 1 {
		t.Errorf("expected one refresh and one prune, got %d and %d", views.calls, cache.calls)
	}
	if !views.ctxOK {
		t.Error("refresh must run with a deadline")
	}
}

func TestStartRejectsInvalidExpression(t *testing.T) {
	s := New("every hour", &fakeViews{}, &fakeCache{})
	defer s.Stop()

	if err := s.Start(); err == nil {
		t.Fatal("expected error for an invalid cron expression")
	}
}

func TestStartAndStop(t *testing.T) {
	s := New("0 * * * *", &fakeViews{}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
}
