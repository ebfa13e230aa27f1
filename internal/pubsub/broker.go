package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

const bufferSize = 64

// Broker delivers every published event to every live subscriber. Publish
// never blocks: a subscriber whose buffer is full misses the event.
type Broker[T any] struct {
	mu      sync.RWMutex
	subs    map[chan Event[T]]context.CancelFunc
	closed  bool
	dropped atomic.Int64
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[chan Event[T]]context.CancelFunc)}
}

// Subscribe returns a channel that is closed when ctx ends or the broker
// shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], bufferSize)
	if b.closed {
		close(ch)
		return ch
	}

	subCtx, cancel := context.WithCancel(ctx)
	b.subs[ch] = cancel
	go func() {
		<-subCtx.Done()
		b.remove(ch)
	}()
	return ch
}

func (b *Broker[T]) remove(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, ok := b.subs[ch]; ok {
		cancel()
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	ev := Event[T]{Type: eventType, Payload: payload}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			if n := b.dropped.Add(1); n == 1 || n%100 == 0 {
				slog.Debug("pubsub subscriber is slow, dropping events",
					"type", fmt.Sprintf("%T", payload), "dropped", n)
			}
		}
	}
}

// Shutdown closes every subscriber channel. Later Publish calls are no-ops.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch, cancel := range b.subs {
		cancel()
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped is the number of deliveries skipped because a buffer was full.
func (b *Broker[T]) Dropped() int64 {
	return b.dropped.Load()
}
