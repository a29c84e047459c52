package live

import (
	"context"
	"sync"
)

// Refresher is a live view that can refetch its data.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Hub tracks the views of all connected sessions.
type Hub struct {
	mu    sync.Mutex
	views map[string]Refresher
}

func NewHub() *Hub {
	return &Hub{views: make(map[string]Refresher)}
}

func (h *Hub) Add(id string, r Refresher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.views[id] = r
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.views, id)
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.views)
}

// RefreshAll refreshes every registered view and returns how many there were.
func (h *Hub) RefreshAll(ctx context.Context) int {
	h.mu.Lock()
	views := make([]Refresher, 0, len(h.views))
	for _, r := range h.views {
		views = append(views, r)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, r := range views {
		wg.Add(1)
		go func(r Refresher) {
			defer wg.Done()
			r.Refresh(ctx)
		}(r)
	}
	wg.Wait()
	return len(views)
}
