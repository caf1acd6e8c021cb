// Package events provides small type-safe pub/sub primitives used as the
// output surface of the clock engine and the UI model. Listeners are either
// plain callbacks (CallbackEvent) or channels (ChannelEvent); both hand back
// a deregistration func from Listen.
package events

import "sync"

// CallbackEvent fans a value out to registered callback functions.
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]func(T)
	nextID    uint64
	replay    bool
	last      *T
}

// NewCallbackEvent creates a CallbackEvent. When replayLast is true, a
// listener registered after at least one Notify is immediately invoked with
// the most recent value, so late subscribers of stateful events catch up.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		listeners: make(map[uint64]func(T)),
		replay:    replayLast,
	}
}

// Listen registers callback and returns a func that removes it again.
// Calling the returned func more than once is safe.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = callback
	var pending *T
	if e.replay && e.last != nil {
		v := *e.last
		pending = &v
	}
	e.mu.Unlock()

	// Replay outside the lock so the callback may call back into the event.
	if pending != nil {
		callback(*pending)
	}

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify invokes every registered callback with value. Callbacks run outside
// the lock, on the caller's goroutine, in unspecified order.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replay {
		v := value
		e.last = &v
	}
	snapshot := make([]func(T), 0, len(e.listeners))
	for _, callback := range e.listeners {
		snapshot = append(snapshot, callback)
	}
	e.mu.Unlock()

	for _, callback := range snapshot {
		callback(value)
	}
}

// ListenerCount returns the number of registered listeners.
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
