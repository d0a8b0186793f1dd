package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// defaultPollInterval bounds how stale a watcher can get when a change
// is made by another process that this notifier never saw.
const defaultPollInterval = 3 * time.Second

// notifier delivers in-process wakeups to watchers keyed by topic. Writes
// made through this package call notify so local watchers refresh
// immediately; the poll ticker in watchLoop covers writes made elsewhere.
type notifier struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string][]chan struct{})}
}

func (n *notifier) subscribe(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	n.subs[topic] = append(n.subs[topic], ch)
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		subs := n.subs[topic]
		for i, sub := range subs {
			if sub == ch {
				n.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(n.subs[topic]) == 0 {
			delete(n.subs, topic)
		}
	}

	return ch, cancel
}

func (n *notifier) notify(topic string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// watchTopic runs fetch once synchronously, then keeps re-fetching whenever
// the topic is notified or the poll interval elapses, delivering each result
// on the returned channel. Slow consumers only ever see the latest value.
// The channel is closed when ctx is cancelled.
func watchTopic[T any](ctx context.Context, n *notifier, topic string, fetch func(context.Context) (T, error)) (<-chan T, error) {
	initial, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	wake, cancel := n.subscribe(topic)

	out := make(chan T, 1)
	out <- initial

	go func() {
		defer cancel()
		defer close(out)

		ticker := time.NewTicker(defaultPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			case <-ticker.C:
			}

			v, err := fetchWithRetry(ctx, topic, fetch)
			if err != nil {
				return
			}

			sendLatest(out, v)
		}
	}()

	return out, nil
}

// fetchWithRetry retries transient query failures with exponential backoff,
// giving up only when ctx is cancelled or the retry budget is exhausted.
func fetchWithRetry[T any](ctx context.Context, topic string, fetch func(context.Context) (T, error)) (T, error) {
	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fetch(ctx)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("watch refresh failed, retrying")
		}
		return v, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(30*time.Second))
	return v, err
}

// sendLatest delivers v on a capacity-1 channel, dropping any undelivered
// previous value so a stalled reader never blocks the writer.
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
