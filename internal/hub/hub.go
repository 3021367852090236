package hub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
)

// Observer receives pushed snapshots. Send must be safe for concurrent
// use; a returned error marks the observer dead.
type Observer interface {
	Send(domain.LiveSnapshot) error
}

// Source produces the current full snapshot. The hub reads it once per
// broadcast so every observer sees an identical payload.
type Source interface {
	Snapshot() domain.LiveSnapshot
}

// Hub fans live snapshots out to registered observers.
type Hub struct {
	source Source
	log    *zap.Logger

	mu        sync.Mutex
	observers map[Observer]struct{}
}

func New(source Source, log *zap.Logger) *Hub {
	return &Hub{
		source:    source,
		log:       log,
		observers: make(map[Observer]struct{}),
	}
}

// Register adds the observer and immediately pushes the current
// snapshot so a new connection renders without waiting for the next
// tick.
func (h *Hub) Register(o Observer) {
	snap := h.source.Snapshot()

	h.mu.Lock()
	h.observers[o] = struct{}{}
	h.mu.Unlock()

	if err := o.Send(snap); err != nil {
		h.log.Warn("initial snapshot send failed", zap.Error(err))
		h.Unregister(o)
	}
}

// Unregister removes the observer. Unknown observers are ignored.
func (h *Hub) Unregister(o Observer) {
	h.mu.Lock()
	delete(h.observers, o)
	h.mu.Unlock()
}

// Broadcast pushes the current snapshot to every observer. A failed
// send drops only that observer; the rest still receive the payload
// and the caller never sees an error.
func (h *Hub) Broadcast() {
	snap := h.source.Snapshot()

	h.mu.Lock()
	obs := make([]Observer, 0, len(h.observers))
	for o := range h.observers {
		obs = append(obs, o)
	}
	h.mu.Unlock()

	var dead []Observer
	for _, o := range obs {
		if err := o.Send(snap); err != nil {
			h.log.Warn("observer send failed, dropping", zap.Error(err))
			dead = append(dead, o)
		}
	}
	for _, o := range dead {
		h.Unregister(o)
	}
}

// Count reports the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}
