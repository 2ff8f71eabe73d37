package cache

import (
	"context"
	"fmt"
)

const notifyPrefix = "notify:"

// Notifier fans change notifications out across processes over Redis pub/sub.
// It satisfies livequery.Source and livequery.Publisher.
type Notifier struct {
	client *RedisClient
}

// NewNotifier returns a Notifier backed by r.
func NewNotifier(r *RedisClient) *Notifier {
	return &Notifier{client: r}
}

// Notify publishes a wake-up on channel.
func (n *Notifier) Notify(ctx context.Context, channel string) error {
	if err := n.client.Client().Publish(ctx, notifyPrefix+channel, "1").Err(); err != nil {
		return fmt.Errorf("notify %s: %w", channel, err)
	}
	return nil
}

// Listen subscribes to channel until ctx ends. Bursts collapse into a single
// pending wake-up.
func (n *Notifier) Listen(ctx context.Context, channel string) (<-chan struct{}, error) {
	ps := n.client.Client().Subscribe(ctx, notifyPrefix+channel)
	// Receive waits for the subscription confirmation.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	msgs := ps.Channel()
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer ps.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
