package stream

import (
	"context"
	"sync"
)

// Hub is an in-process broadcaster that fans events out to subscribers,
// ordered per job. Slow subscribers lose events rather than stall the
// pipeline.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]chan Event // job id -> subscriber channels
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan Event)}
}

// Subscribe returns a channel of events for the given job and a cancel
// function that closes it.
func (h *Hub) Subscribe(jobID string) (<-chan Event, func()) {
	ch := make(chan Event, 64)

	h.mu.Lock()
	h.subs[jobID] = append(h.subs[jobID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		chans := h.subs[jobID]
		for i, c := range chans {
			if c == ch {
				h.subs[jobID] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
		if len(h.subs[jobID]) == 0 {
			delete(h.subs, jobID)
		}
	}
	return ch, cancel
}

// Notify delivers the event to every subscriber of its job. Full subscriber
// buffers drop the event.
func (h *Hub) Notify(_ context.Context, ev Event) {
	ev = stamp(ev)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[ev.JobID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
