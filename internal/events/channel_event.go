package events

import "sync"

// ChannelEvent fans a value out to registered channels. Sends never block: a
// full channel simply misses that notification, which is acceptable for the
// display-update streams this carries (a newer value follows shortly).
type ChannelEvent[T any] struct {
	mu       sync.RWMutex
	channels map[uint64]chan<- T
	nextID   uint64
	replay   bool
	last     *T
}

// NewChannelEvent creates a ChannelEvent. replayLast behaves as in
// NewCallbackEvent: late listeners receive the most recent value on Listen.
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels: make(map[uint64]chan<- T),
		replay:   replayLast,
	}
}

// Listen registers ch and returns a func that removes it again.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	var pending *T
	if e.replay && e.last != nil {
		v := *e.last
		pending = &v
	}
	e.mu.Unlock()

	if pending != nil {
		select {
		case ch <- *pending:
		default:
		}
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends value to every registered channel without blocking.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replay {
		v := value
		e.last = &v
	}
	snapshot := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		snapshot = append(snapshot, ch)
	}
	e.mu.Unlock()

	for _, ch := range snapshot {
		select {
		case ch <- value:
		default:
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}
