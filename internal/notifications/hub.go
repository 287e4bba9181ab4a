package notifications

import (
	"sync"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
)

const defaultSubscriberBuffer = 16

// Hub fans freshly materialized notifications out to connected dashboard
// sessions. Delivery is best effort: a subscriber whose buffer is full misses
// the push and catches up from the List endpoint.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	closed      bool
}

type subscriber struct {
	adminID uuid.UUID
	ch      chan models.AdminNotification
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: map[int]*subscriber{}}
}

// Subscribe registers a dashboard session for the given admin. The returned
// boolean reports whether the hub accepted the subscription; false means the
// hub is shut down and the caller should fall back to polling.
func (h *Hub) Subscribe(adminID uuid.UUID) (<-chan models.AdminNotification, func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, func() {}, false
	}

	id := h.nextID
	h.nextID++
	sub := &subscriber{
		adminID: adminID,
		ch:      make(chan models.AdminNotification, defaultSubscriberBuffer),
	}
	h.subscribers[id] = sub

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(existing.ch)
		}
	}
	return sub.ch, cancel, true
}

// Publish pushes a notification to every matching subscriber and returns how
// many sessions received it. A nil target means broadcast.
func (h *Hub) Publish(notification models.AdminNotification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0
	}

	delivered := 0
	for _, sub := range h.subscribers {
		if notification.TargetAdminID != nil && *notification.TargetAdminID != sub.adminID {
			continue
		}
		select {
		case sub.ch <- notification:
			delivered++
		default:
			// Slow consumer; the row is already persisted.
		}
	}
	return delivered
}

// Close drains every subscription. Further Subscribe calls report not connected.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		close(sub.ch)
	}
}
