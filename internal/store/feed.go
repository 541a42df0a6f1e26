package store

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
)

// feed broadcasts "something changed" to every registered live view. Each
// subscriber has a one-slot signal channel, so a burst of writes collapses
// into a single re-evaluation.
type feed struct {
	mu     sync.Mutex
	next   uint64
	subs   map[uint64]chan struct{}
	closed bool
}

func newFeed() *feed {
	return &feed{subs: make(map[uint64]chan struct{})}
}

// subscribe registers a listener. The returned cancel func is idempotent.
func (f *feed) subscribe() (<-chan struct{}, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, nil, ErrClosed
	}

	id := f.next
	f.next++
	ch := make(chan struct{}, 1)
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// publish signals every listener without blocking.
func (f *feed) publish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// close wakes every listener one last time and refuses new subscriptions.
func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}
}

// watch runs query now and after every change signal, sending each result
// that differs from the previous one. The output channel holds at most one
// pending result; an unread result is replaced by a newer one.
func watch[T any](ctx context.Context, f *feed, name string, query func(context.Context) ([]T, error)) (<-chan []T, error) {
	signals, cancel, err := f.subscribe()
	if err != nil {
		return nil, err
	}

	initial, err := query(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []T, 1)
	out <- initial

	go func() {
		defer close(out)
		defer cancel()

		last := initial
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
			}

			result, err := query(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("live view refresh failed",
					"component", "store",
					"action", "view_refresh_failed",
					"view", name,
					"error", err,
				)
				continue
			}
			if reflect.DeepEqual(result, last) {
				continue
			}
			last = result

			// Sole sender: after draining, the send cannot block.
			select {
			case <-out:
			default:
			}
			out <- result
		}
	}()

	return out, nil
}
