package feed

import (
	"errors"

	"github.com/vidloop/feedplay/internal/model"
)

// Subscriber channel capacity. Publish never blocks: events beyond a full
// buffer are dropped and counted.
const (
	DefaultSubscriberBuffer = 64
)

// Subscription errors
var (
	ErrSubscriberExists = errors.New("subscriber id already registered")
	ErrManagerClosed    = errors.New("manager is closed")
)

// Event is an immutable snapshot published on every state change of any
// managed item. Subscribers never receive references into manager internals.
type Event struct {
	ID         string
	VideoState model.VideoState
}

// Subscribe registers a subscriber and returns its event channel. The
// channel is closed on Unsubscribe or Close.
func (m *Manager) Subscribe(subscriberID string) (<-chan Event, error) {
	m.subsMutex.Lock()
	defer m.subsMutex.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if _, exists := m.subscribers[subscriberID]; exists {
		return nil, ErrSubscriberExists
	}

	ch := make(chan Event, DefaultSubscriberBuffer)
	m.subscribers[subscriberID] = ch
	return ch, nil
}

// Unsubscribe removes a subscriber and closes its channel
func (m *Manager) Unsubscribe(subscriberID string) {
	m.subsMutex.Lock()
	defer m.subsMutex.Unlock()

	ch, exists := m.subscribers[subscriberID]
	if !exists {
		return
	}
	delete(m.subscribers, subscriberID)
	close(ch)
}

// publish delivers an event to all subscribers without blocking. Slow
// subscribers lose events; the drop is counted for diagnostics.
func (m *Manager) publish(ev Event) {
	m.subsMutex.Lock()
	defer m.subsMutex.Unlock()

	if m.closed {
		return
	}
	for _, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			m.droppedEvents++
		}
	}
}
