// Package events is the in-process session event bus. Publish is
// fire-and-forget: events go synchronously to the subscribers registered at
// that moment and are dropped when there are none. No queuing, no replay.
package events

import (
	"sync"
	"time"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

// Handler receives one stream event. Handlers run synchronously on the
// publishing goroutine and should hand off quickly.
type Handler func(models.StreamEvent)

// Bus holds per-session subscriber lists. The bus owns no state beyond the
// transient subscriber registrations; entries disappear on unsubscribe.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[int]Handler // sessionId -> token -> handler
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a session's events and returns its
// unsubscribe function. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(sessionID string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	token := b.next
	b.next++
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]Handler)
	}
	b.subs[sessionID][token] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.subs[sessionID]; ok {
			delete(handlers, token)
			if len(handlers) == 0 {
				delete(b.subs, sessionID)
			}
		}
	}
}

// Publish delivers an event to every current subscriber of the session.
// Dropped silently when nobody is subscribed.
func (b *Bus) Publish(sessionID, eventType string, payload map[string]interface{}) {
	evt := models.StreamEvent{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[sessionID]))
	for _, h := range b.subs[sessionID] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

// SubscriberCount reports the current number of subscribers for a session.
func (b *Bus) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
