// Package pages holds what every live page instance shares: an event feed for the
// browser and a registry that addresses instances by id.
package pages

import "sync"

// Event types pushed to the browser.
const (
	EventCatalog = "catalog"
	EventCart    = "cart"
	EventOrders  = "orders"
	EventNotice  = "notice"
)

// Event is one update for the page's browser.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Error   bool   `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const subscriberBuffer = 16

// Bus fans events out to subscribers. A subscriber that falls behind loses events
// rather than blocking the page.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: map[uint64]chan Event{}}
}

// Subscribe returns a channel of events and the function that releases it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *Bus) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Notice emits a feedback message.
func (b *Bus) Notice(message string, isError bool) {
	b.Emit(Event{Type: EventNotice, Message: message, Error: isError})
}

// Close ends every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
