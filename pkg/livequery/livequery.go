// Package livequery turns change notifications into a stream of full
// snapshots of a tenant-scoped query.
//
// A subscriber receives the current result immediately, then a fresh result
// after every notification on its channel. Notifications that arrive while a
// reload is pending are coalesced, and a slow consumer only ever sees the
// latest snapshot, never a backlog.
package livequery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/logger"
)

// Source delivers change notifications for a channel until ctx ends.
type Source interface {
	Listen(ctx context.Context, channel string) (<-chan struct{}, error)
}

// Publisher announces that data behind a channel changed.
type Publisher interface {
	Notify(ctx context.Context, channel string) error
}

// Bus is both ends of the notification channel. *cache.Notifier and *Hub
// implement it.
type Bus interface {
	Source
	Publisher
}

// Snapshot is one complete result of the query. Seq increases with every
// reload of the same subscription.
type Snapshot[T any] struct {
	Seq   uint64    `json:"seq"`
	Items []T       `json:"items"`
	At    time.Time `json:"at"`
}

// Loader runs the query.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Channel names the notification channel of a collection within a company.
func Channel(collection string, companyID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", collection, companyID)
}

// Subscribe loads the initial snapshot synchronously, so a failing query is
// reported to the caller, and then streams reloads until ctx ends or the
// source closes. Reload errors are logged and the previous snapshot stands.
func Subscribe[T any](ctx context.Context, src Source, channel string, load Loader[T], log logger.Logger) (<-chan Snapshot[T], error) {
	notes, err := src.Listen(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("livequery: listen %s: %w", channel, err)
	}

	var seq uint64
	reload := func() (*Snapshot[T], error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		seq++
		return &Snapshot[T]{Seq: seq, Items: items, At: time.Now().UTC()}, nil
	}

	pending, err := reload()
	if err != nil {
		return nil, fmt.Errorf("livequery: initial load %s: %w", channel, err)
	}

	out := make(chan Snapshot[T])
	go func() {
		defer close(out)
		dirty := false
		for {
			if dirty {
				dirty = false
				snap, err := reload()
				switch {
				case err == nil:
					pending = snap
				case ctx.Err() != nil:
					return
				default:
					log.WarnContext(ctx, "livequery: reload failed", "channel", channel, "error", err)
				}
			}

			var send chan<- Snapshot[T]
			var next Snapshot[T]
			if pending != nil {
				send, next = out, *pending
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-notes:
				if !ok {
					return
				}
				dirty = true
				drain(notes)
			case send <- next:
				pending = nil
			}
		}
	}()
	return out, nil
}

// drain swallows notifications already queued; one reload covers them all.
func drain(notes <-chan struct{}) {
	for {
		select {
		case _, ok := <-notes:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
