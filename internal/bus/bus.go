package bus

import "sync"

// Bus provides fan-out pub/sub semantics for messages of type T. Each
// Subscribe call gets its own channel that receives future publications.
// Past messages are not replayed. Slow subscribers only ever see the most
// recent message. Publish must be called from a single goroutine.
type Bus[T any] struct {
	mu          sync.RWMutex
	subscribers []chan T
	closed      bool
}

// New creates a ready-to-use Bus.
func New[T any]() *Bus[T] { return &Bus[T]{} }

// Subscribe returns a read-only channel that will receive all future
// messages. The channel is closed by Close.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers msg to all subscribers without blocking. A message
// still waiting in a subscriber's buffer is replaced by msg.
func (b *Bus[T]) Publish(msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

// Close closes every subscriber channel.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
