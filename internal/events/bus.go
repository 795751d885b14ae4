// Package events provides an in-process publish/subscribe bus for call
// status changes observed by the monitor.
package events

import (
	"container/ring"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// BusEvent is the interface that all bus events must implement
type BusEvent interface {
	EventType() string
	EventTimestamp() time.Time
	EventDevice() string
}

// EventHandler is a callback function for event subscriptions
type EventHandler func(BusEvent)

// UnsubscribeFunc is returned from Subscribe and can be called to unsubscribe
type UnsubscribeFunc func()

// handlerEntry wraps a handler with a unique ID for safe unsubscription
type handlerEntry struct {
	id      uint64
	handler EventHandler
}

// EventBus provides a centralized pub/sub system for telwatch events
type EventBus struct {
	subscribers map[string][]handlerEntry
	nextID      atomic.Uint64
	mu          sync.RWMutex
	history     *ring.Ring
	historySize int
	historyMu   sync.RWMutex
}

// NewEventBus creates a new event bus with the specified history size
func NewEventBus(historySize int) *EventBus {
	if historySize < 1 {
		historySize = 100
	}
	return &EventBus{
		subscribers: make(map[string][]handlerEntry),
		history:     ring.New(historySize),
		historySize: historySize,
	}
}

// Subscribe registers a handler for a specific event type ("*" for all).
// Returns an unsubscribe function
func (b *EventBus) Subscribe(eventType string, handler EventHandler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID.Add(1)
	b.subscribers[eventType] = append(b.subscribers[eventType], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.subscribers[eventType]
		for i, h := range handlers {
			if h.id == id {
				handlers[i] = handlers[len(handlers)-1]
				b.subscribers[eventType] = handlers[:len(handlers)-1]
				return
			}
		}
	}
}

// SubscribeAll registers a handler for all events (wildcard)
func (b *EventBus) SubscribeAll(handler EventHandler) UnsubscribeFunc {
	return b.Subscribe("*", handler)
}

// Publish records the event and delivers it to matching subscribers
// without waiting for them.
func (b *EventBus) Publish(event BusEvent) {
	for _, entry := range b.prepare(event) {
		go func(h EventHandler) {
			h(event)
		}(entry.handler)
	}
}

// PublishSync delivers the event and waits for all handlers to complete
func (b *EventBus) PublishSync(event BusEvent) {
	var wg sync.WaitGroup
	for _, entry := range b.prepare(event) {
		wg.Add(1)
		go func(h EventHandler) {
			defer wg.Done()
			h(event)
		}(entry.handler)
	}
	wg.Wait()
}

// prepare appends event to history and snapshots its handlers.
func (b *EventBus) prepare(event BusEvent) []handlerEntry {
	b.historyMu.Lock()
	b.history.Value = event
	b.history = b.history.Next()
	b.historyMu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	eventType := event.EventType()
	entries := make([]handlerEntry, 0, len(b.subscribers[eventType])+len(b.subscribers["*"]))
	entries = append(entries, b.subscribers[eventType]...)
	entries = append(entries, b.subscribers["*"]...)
	return entries
}

// History returns recent events (newest first)
func (b *EventBus) History(limit int) []BusEvent {
	if limit <= 0 || limit > b.historySize {
		limit = b.historySize
	}

	b.historyMu.RLock()
	defer b.historyMu.RUnlock()

	events := make([]BusEvent, 0, limit)
	r := b.history.Prev()
	for i := 0; i < limit; i++ {
		if event, ok := r.Value.(BusEvent); ok {
			events = append(events, event)
		}
		r = r.Prev()
	}
	return events
}

// Stream writes every event as one JSON line to w until unsubscribed.
// Writes are serialized.
func (b *EventBus) Stream(w io.Writer) UnsubscribeFunc {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return b.SubscribeAll(func(e BusEvent) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(e)
	})
}

// SubscriberCount returns the number of subscribers for an event type
func (b *EventBus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Device    string    `json:"device,omitempty"`
}

// EventType returns the event type
func (e BaseEvent) EventType() string { return e.Type }

// EventTimestamp returns the event timestamp
func (e BaseEvent) EventTimestamp() time.Time { return e.Timestamp }

// EventDevice returns the device serial
func (e BaseEvent) EventDevice() string { return e.Device }
