package livequery

import (
	"context"
	"sync"
)

// Hub is an in-process Source and Publisher. It backs tests and single
// instance deployments without Redis.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Listen registers a listener that is removed when ctx ends.
func (h *Hub) Listen(ctx context.Context, channel string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[chan struct{}]struct{})
	}
	h.subs[channel][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[channel], ch)
		if len(h.subs[channel]) == 0 {
			delete(h.subs, channel)
		}
		h.mu.Unlock()
	}()
	return ch, nil
}

// Notify wakes every listener on channel. A listener that already has a
// wake-up queued is skipped.
func (h *Hub) Notify(_ context.Context, channel string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[channel] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Listeners returns the number of live listeners on channel.
func (h *Hub) Listeners(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[channel])
}
