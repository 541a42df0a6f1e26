package session

import (
	"context"
	"sync"
)

// Value is an observable piece of state. Watchers receive the current value
// on subscription and every later one, but a slow watcher only sees the
// latest.
type Value[T any] struct {
	mu   sync.Mutex
	v    T
	next uint64
	subs map[uint64]chan T
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[uint64]chan T)}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set replaces the current value and notifies every watcher.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	for _, ch := range o.subs {
		offer(ch, v)
	}
}

// Watch streams the value until ctx is done, then closes the channel.
func (o *Value[T]) Watch(ctx context.Context) <-chan T {
	o.mu.Lock()
	id := o.next
	o.next++
	ch := make(chan T, 1)
	ch <- o.v
	o.subs[id] = ch
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.subs, id)
		close(ch)
		o.mu.Unlock()
	}()
	return ch
}

// offer replaces whatever is pending in ch with v. Callers must be the only
// sender on ch.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
