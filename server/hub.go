package server

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how many undelivered events one subscriber can
// accumulate before losing its oldest pending event.
const subscriberBuffer = 100

// Hub fans feed events out to the SSE subscribers of each session. Publishing
// never blocks, a slow subscriber loses its oldest pending event instead.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[string]chan []byte
}

func NewHub() *Hub {
	return &Hub{sessions: map[string]map[string]chan []byte{}}
}

// Subscribe registers a subscriber for one session's events and returns the
// delivery channel together with an unsubscribe function. Unsubscribing is
// idempotent.
func (h *Hub) Subscribe(sessionID string) (<-chan []byte, func()) {
	subscription := make(chan []byte, subscriberBuffer)
	subscriberID := uuid.NewString()

	h.mu.Lock()
	subscribers := h.sessions[sessionID]
	if subscribers == nil {
		subscribers = map[string]chan []byte{}
		h.sessions[sessionID] = subscribers
	}
	subscribers[subscriberID] = subscription
	h.mu.Unlock()

	return subscription, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if subscribers, ok := h.sessions[sessionID]; ok {
			delete(subscribers, subscriberID)
			if len(subscribers) == 0 {
				delete(h.sessions, sessionID)
			}
		}
	}
}

// Publish marshals the event once and delivers it to every subscriber of the
// session. Subscribers with a full buffer drop their oldest pending event to
// make room, the publisher itself never waits.
func (h *Hub) Publish(sessionID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Println("Warning: failed to marshal feed event:", err)
		return
	}

	h.mu.Lock()
	subscriptions := make([]chan []byte, 0, len(h.sessions[sessionID]))
	for _, subscription := range h.sessions[sessionID] {
		subscriptions = append(subscriptions, subscription)
	}
	h.mu.Unlock()

	for _, subscription := range subscriptions {
		select {
		case subscription <- payload:
			continue
		default:
		}

		select {
		case <-subscription:
		default:
		}
		select {
		case subscription <- payload:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers a session currently has.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.sessions[sessionID])
}
