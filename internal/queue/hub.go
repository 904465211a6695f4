package queue

import "sync"

// Hub is the in-process bridge between order mutations and the admin
// order-stream endpoint. Handlers publish a note after an order is created
// or confirmed; each connected admin SSE client holds a subscription and
// re-fetches the order list when a note arrives (push to trigger a pull,
// not a data stream). Slow subscribers lose notes instead of blocking
// publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan string]struct{})}
}

// Subscribe registers a listener. The returned cancel function must be
// called when the client disconnects.
func (h *Hub) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a note to every live subscriber without blocking.
func (h *Hub) Publish(note string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- note:
		default: // drop for slow consumers
		}
	}
}
