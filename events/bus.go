package events

import "sync"

// DefaultBuffer is the per-subscriber channel capacity used by New.
const DefaultBuffer = 256

// Bus is an in-process broadcast of events to any number of subscribers.
// It is safe for concurrent publish/subscribe.
//
// Publish never drops events: when a subscriber's buffer is full it waits
// until that subscriber reads or unsubscribes. A stalled subscriber therefore
// slows the sessions feeding the bus rather than losing their output.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	buffer      int
	closed      bool
}

type subscriber struct {
	ch       chan Event
	done     chan struct{}
	stopOnce sync.Once
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// New creates a bus whose subscriber channels hold buffer events.
// A non-positive buffer selects DefaultBuffer.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subscribers: make(map[int]*subscriber),
		buffer:      buffer,
	}
}

// Subscribe registers a subscriber. The channel is closed by unsubscribe or
// by Close; unsubscribe must be called when done.
func (b *Bus) Subscribe() (events <-chan Event, unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	b.nextID++
	id := b.nextID
	sub := &subscriber{
		ch:   make(chan Event, b.buffer),
		done: make(chan struct{}),
	}
	b.subscribers[id] = sub

	return sub.ch, func() {
		// Release any publisher blocked on this subscriber before taking
		// the write lock.
		sub.stop()

		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[id]; ok {
			close(sub.ch)
			delete(b.subscribers, id)
		}
	}
}

// Publish delivers e to every subscriber.
// Events published after Close are dropped.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- e:
		case <-sub.done:
		}
	}
}

// Close closes every subscriber channel. Later subscriptions receive an
// already-closed channel.
func (b *Bus) Close() {
	b.mu.RLock()
	for _, sub := range b.subscribers {
		sub.stop()
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscribers {
		sub.stop()
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
