// Package projection maintains live, eventually-consistent in-memory
// projections of an organization's service and incident collections, fed by
// store subscriptions. Every store event replaces the whole projection; no
// diffing is attempted.
package projection

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscriptionLost is reported by a synchronizer whose store
// subscription ended while its context was still live, e.g. after a
// permission revocation. Consumers must treat this as an explicit error
// state, not an empty collection.
var ErrSubscriptionLost = errors.New("store subscription lost")

// feed fans snapshots out to any number of subscribers with latest-wins
// delivery per subscriber.
type feed[T any] struct {
	mu          sync.Mutex
	current     T
	primed      bool
	subscribers []chan T
	closed      bool
}

// publish stores the snapshot and delivers it to all subscribers.
func (f *feed[T]) publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current = v
	f.primed = true
	for _, ch := range f.subscribers {
		sendLatest(ch, v)
	}
}

// get returns the most recent snapshot.
func (f *feed[T]) get() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.primed
}

// subscribe registers a new subscriber. The current snapshot, if any, is
// delivered immediately. The channel is closed when ctx is cancelled or the
// feed shuts down.
func (f *feed[T]) subscribe(ctx context.Context) <-chan T {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan T, 1)
	if f.closed {
		close(ch)
		return ch
	}
	if f.primed {
		ch <- f.current
	}
	f.subscribers = append(f.subscribers, ch)

	context.AfterFunc(ctx, func() {
		f.remove(ch)
	})

	return ch
}

// remove drops a subscriber and closes its channel, exactly once.
func (f *feed[T]) remove(ch chan T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, c := range f.subscribers {
		if c == ch {
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// shutdown closes all subscriber channels.
func (f *feed[T]) shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.subscribers {
		close(ch)
	}
	f.subscribers = nil
}

// sendLatest replaces any undelivered snapshot so a slow subscriber always
// observes the newest state and never blocks the publisher.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
