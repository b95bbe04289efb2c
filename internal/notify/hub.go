// Package notify implements the real-time notification fan-out.
//
// The Hub is a process-wide registry mapping a user ID to the set of live
// delivery channels for that user (one per open event-stream connection —
// the same user can be connected from several tabs). Publish delivers an
// event to every live channel for the target user, or silently does nothing
// when none are connected.
//
// This is intentionally fire-and-forget: no queuing, no offline delivery,
// no retries. The marketplace's correctness — who is hired, which bids are
// rejected — never depends on a notification arriving. The transaction
// engine only ever calls Publish, strictly after commit; it never touches
// the registry itself.
package notify

import (
	"log/slog"
	"sync"
)

// Event is the payload pushed to a connected client. Type is a machine-
// readable tag ("new-bid", "bid-hired"); the ID fields give the client
// enough context to link to the gig or bid in question.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	GigID   string `json:"gigId,omitempty"`
	BidID   string `json:"bidId,omitempty"`
}

// subscriberBuffer is the per-channel buffer handed out by Subscribe.
// A client that falls further behind than this loses events (at-most-once).
const subscriberBuffer = 16

// Hub is the connection registry. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	logger *slog.Logger

	// subscribers maps userID → the set of live channels for that user.
	// The channel itself is the map key; the empty struct value costs nothing.
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger,
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new delivery channel for userID and returns it.
// The caller owns the connection lifecycle: call Unsubscribe with the same
// channel when the connection closes.
func (h *Hub) Subscribe(userID string) chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan Event]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}

	h.logger.Debug("notify: subscribed",
		slog.String("userId", userID),
		slog.Int("connections", len(h.subscribers[userID])),
	)
	return ch
}

// Unsubscribe removes a channel previously returned by Subscribe and closes
// it. Safe to call with a channel that was already removed.
func (h *Hub) Unsubscribe(userID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[userID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subscribers, userID)
	}

	h.logger.Debug("notify: unsubscribed", slog.String("userId", userID))
}

// Publish delivers event to every live channel for userID. If the user has
// no live connections, the event is dropped without error — delivery failure
// is never allowed to affect the committed transaction that produced it.
//
// Sends are non-blocking: a subscriber whose buffer is full simply misses
// the event. A slow client must never stall the publisher.
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set, ok := h.subscribers[userID]
	if !ok || len(set) == 0 {
		return
	}

	for ch := range set {
		select {
		case ch <- event:
		default:
			h.logger.Warn("notify: dropping event, subscriber buffer full",
				slog.String("userId", userID),
				slog.String("type", event.Type),
			)
		}
	}
}

// SubscriberCount reports how many live channels a user has. Used by tests
// and the events handler's logging.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
