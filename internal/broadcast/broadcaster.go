// ABOUTME: In-memory fan-out of latest-value updates to keyed subscribers
// ABOUTME: Each subscriber holds at most one pending value; newer values replace older ones

// Package broadcast fans out latest-value updates to keyed subscribers.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Broadcaster delivers values published under a key to every subscriber of
// that key. Delivery is conflated: a subscriber that falls behind skips
// intermediate values but always ends up holding the most recent one, so a
// slow reader never blocks the publisher.
//
// Publish must not be called concurrently for the same key if callers rely
// on the latest value winning. Publish under the same lock that orders the
// writes.
type Broadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan T // key -> subID -> ch
	closed      bool
	logger      *slog.Logger
}

// New creates a broadcaster. Pass nil logger for default.
func New[T any](logger *slog.Logger) *Broadcaster[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster[T]{
		subscribers: make(map[string]map[string]chan T),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for key and primes its channel with
// initial. The subscription is removed and the channel closed when ctx is
// cancelled.
func (b *Broadcaster[T]) Subscribe(ctx context.Context, key string, initial T) (<-chan T, string) {
	subID := uuid.New().String()
	ch := make(chan T, 1)
	ch <- initial

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	if _, ok := b.subscribers[key]; !ok {
		b.subscribers[key] = make(map[string]chan T)
	}
	b.subscribers[key][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "key", key, "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(key, subID)
	}()

	return ch, subID
}

// Publish hands v to every subscriber of key, replacing any value the
// subscriber has not consumed yet.
func (b *Broadcaster[T]) Publish(key string, v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subID, ch := range b.subscribers[key] {
		select {
		case ch <- v:
			continue
		default:
		}
		// Slot occupied by a stale value; drop it and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
			b.logger.Debug("dropped update for subscriber", "key", key, "sub_id", subID)
		}
	}
}

// Subscribers returns how many subscriptions exist for key.
func (b *Broadcaster[T]) Subscribers(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[key])
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster[T]) Unsubscribe(key, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[key]
	if !ok {
		return
	}
	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)
	if len(subs) == 0 {
		delete(b.subscribers, key)
	}

	b.logger.Debug("subscriber removed", "key", key, "sub_id", subID)
}

// Close closes every subscriber channel. Later subscriptions receive their
// initial value on an already closed channel.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, key)
	}
	b.closed = true

	b.logger.Debug("broadcaster closed")
}
