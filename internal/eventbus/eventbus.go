// Package eventbus provides a small in-process publish/subscribe bus used to
// decouple the engine from observers such as the firing audit log.
package eventbus

import "sync"

// Bus is a type-safe fan-out bus. Delivery is non-blocking: a subscriber
// whose buffer is full misses the event rather than stalling the publisher.
type Bus[T any] struct {
	mu     sync.RWMutex
	buffer int
	subs   []chan T
	closed bool
}

// New creates a Bus whose subscriber channels hold up to buffer events.
// A non-positive buffer defaults to 8.
func New[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = 8
	}
	return &Bus[T]{buffer: buffer}
}

// Publish sends the event to all subscribers.
func (b *Bus[T]) Publish(ev T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel. The channel
// is closed when the bus closes or the subscriber unsubscribes.
func (b *Bus[T]) Subscribe() <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan T, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and rejects further publishes.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
