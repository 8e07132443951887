package generation

import (
	"context"
	"slices"
	"sync"
)

// InMemoryHistory keeps entries per owner in insertion order.
type InMemoryHistory struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewInMemoryHistory() *InMemoryHistory {
	return &InMemoryHistory{entries: make(map[string][]Entry)}
}

func (h *InMemoryHistory) Insert(_ context.Context, e Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[e.OwnerID] = append(h.entries[e.OwnerID], e)
	return nil
}

func (h *InMemoryHistory) ListByOwner(_ context.Context, ownerID string, limit int) ([]Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := slices.Clone(h.entries[ownerID])
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
