package broadcast

import (
	"sync"

	"github.com/mwaf/smartstock/internal/models"
)

const subscriberBuffer = 16

// Hub fans saved notifications out to live subscribers: one channel group
// per user plus an admin-wide group. Slow subscribers are skipped rather
// than blocking the consumer path.
type Hub struct {
	mu     sync.RWMutex
	users  map[int64]map[chan models.Notification]struct{}
	admins map[chan models.Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{
		users:  make(map[int64]map[chan models.Notification]struct{}),
		admins: make(map[chan models.Notification]struct{}),
	}
}

// SubscribeUser registers a listener for one user's notifications. The
// returned cancel func must be called when the listener goes away.
func (h *Hub) SubscribeUser(userID int64) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, subscriberBuffer)

	h.mu.Lock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan models.Notification]struct{})
	}
	h.users[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.users[userID], ch)
		if len(h.users[userID]) == 0 {
			delete(h.users, userID)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscribeAdmins registers a listener for admin-wide notifications.
func (h *Hub) SubscribeAdmins() (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, subscriberBuffer)

	h.mu.Lock()
	h.admins[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.admins, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) NotifyUser(userID int64, n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.users[userID] {
		select {
		case ch <- n:
		default:
		}
	}
}

func (h *Hub) NotifyAdmins(n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.admins {
		select {
		case ch <- n:
		default:
		}
	}
}
