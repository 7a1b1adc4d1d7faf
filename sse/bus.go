package sse

import "sync"

// bus tracks the channels of all connected clients
type bus[T any] struct {
	mu  sync.RWMutex
	chs map[chan T]struct{}
}

func (b *bus[T]) register(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chs[ch] = struct{}{}
}

func (b *bus[T]) unregister(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.chs, ch)
}

// publish sends message to every client that has room for it; a client that isn't
// keeping up misses messages rather than stalling everyone else
func (b *bus[T]) publish(message T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.chs {
		select {
		case ch <- message:
		default:
		}
	}
}

func (b *bus[T]) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.chs)
}

func (b *bus[T]) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chs)
}
