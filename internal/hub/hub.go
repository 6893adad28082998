package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/atikulmunna/logsift/internal/model"
)

const subscriberBuffer = 4

// Hub receives log snapshots and broadcasts each one to all subscribers.
// Every subscriber applies its own filter to the shared snapshot.
type Hub struct {
	input       <-chan model.Snapshot
	mu          sync.RWMutex
	subscribers map[int]chan model.Snapshot
	nextID      int
	latest      *model.Snapshot
	dropped     atomic.Int64
}

// New creates a Hub that reads snapshots from input.
func New(input <-chan model.Snapshot) *Hub {
	return &Hub{
		input:       input,
		subscribers: make(map[int]chan model.Snapshot),
	}
}

// Subscribe returns a channel of snapshots and a function that cancels the
// subscription. The latest snapshot, if any, is delivered first.
func (h *Hub) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch
	if h.latest != nil {
		ch <- *h.latest
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subscribers[id]; ok {
				close(sub)
				delete(h.subscribers, id)
			}
		})
	}
}

// Latest returns the most recent snapshot.
func (h *Hub) Latest() (model.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return model.Snapshot{}, false
	}
	return *h.latest, true
}

// Dropped returns the number of snapshots skipped for slow subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Start broadcasts snapshots until the context is cancelled or input closes.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-h.input:
			if !ok {
				return
			}
			h.broadcast(snap)
		}
	}
}

// broadcast sends a snapshot to all subscribers.
// A subscriber whose buffer is full misses this snapshot; the next one
// supersedes it anyway since snapshots are complete.
func (h *Hub) broadcast(snap model.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &snap
	for id, ch := range h.subscribers {
		select {
		case ch <- snap:
		default:
			n := h.dropped.Add(1)
			slog.Warn("hub: dropped snapshot for slow subscriber", "subscriber", id, "total_dropped", n)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
