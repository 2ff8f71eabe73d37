// Package events carries domain events between the API and worker processes
// over Postgres using Watermill's SQL transport.
//
// Repositories publish with PublishTx inside the same transaction as the row
// change they describe, so an event exists if and only if the change
// committed. In forwarder mode those writes land in an outbox topic and a
// background forwarder relays them to their real topics.
//
// Delivery is at least once. Handlers must be idempotent.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/blueledger/blueledger/pkg/config"
	"github.com/blueledger/blueledger/pkg/logger"
)

const (
	defaultMaxAttempts = 3
	defaultRetryBase   = time.Second
	shutdownTimeout    = 30 * time.Second
	outboxTopic        = "_blueledger_outbox"
	forwarderGroup     = "blueledger-forwarder"
)

type options struct {
	forwarder     bool
	consumerGroup string
	maxAttempts   int
	retryBase     time.Duration
}

// Option configures an EventBus.
type Option func(*options)

// WithForwarder routes PublishTx through the outbox topic. The process that
// owns the bus must call StartForwarder.
func WithForwarder() Option {
	return func(o *options) { o.forwarder = true }
}

// WithConsumerGroup overrides the subscriber group. Instances sharing a group
// split the messages of a topic between them.
func WithConsumerGroup(group string) Option {
	return func(o *options) { o.consumerGroup = group }
}

// WithRetry sets how many times a failing handler runs before the message is
// nacked, and the first backoff delay.
func WithRetry(attempts int, base time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = max(attempts, 1)
		o.retryBase = base
	}
}

// EventBus publishes and consumes domain events.
type EventBus struct {
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder
	fwdPub     message.Publisher
	db         *sql.DB
	log        logger.Logger
	opts       options
	wg         sync.WaitGroup
}

// NewEventBus opens its own database/sql handle on cfg.DatabaseURL and
// prepares the Watermill schema. Subscribers default to the
// "<service>-consumer" group.
func NewEventBus(cfg *config.Config, log logger.Logger, opts ...Option) (*EventBus, error) {
	o := options{
		consumerGroup: cfg.ServiceName + "-consumer",
		maxAttempts:   defaultMaxAttempts,
		retryBase:     defaultRetryBase,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}

	sub, err := newSubscriber(db, o.consumerGroup, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &EventBus{subscriber: sub, db: db, log: log, opts: o}, nil
}

func newSubscriber(db *sql.DB, group string, log logger.Logger) (*watermillsql.Subscriber, error) {
	sub, err := watermillsql.NewSubscriber(db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, newWatermillLogger(log))
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber %s: %w", group, err)
	}
	return sub, nil
}

func publisherConfig(autoInit bool) watermillsql.PublisherConfig {
	return watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: autoInit,
	}
}

// StartForwarder runs the outbox relay until ctx ends. It returns once the
// relay is accepting messages.
func (q *EventBus) StartForwarder(ctx context.Context) error {
	if !q.opts.forwarder {
		return errors.New("events: StartForwarder needs WithForwarder")
	}
	if q.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	outbox, err := newSubscriber(q.db, forwarderGroup, q.log)
	if err != nil {
		return err
	}
	target, err := watermillsql.NewPublisher(q.db, publisherConfig(true), newWatermillLogger(q.log))
	if err != nil {
		_ = outbox.Close()
		return fmt.Errorf("events: new forwarder publisher: %w", err)
	}
	fwd, err := forwarder.NewForwarder(outbox, target, newWatermillLogger(q.log), forwarder.Config{
		ForwarderTopic: outboxTopic,
	})
	if err != nil {
		_ = target.Close()
		_ = outbox.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}
	q.fwd, q.fwdPub = fwd, target

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := fwd.Run(ctx); err != nil {
			q.log.ErrorContext(ctx, "events: forwarder stopped", "error", err)
		}
	}()

	select {
	case <-fwd.Running():
		q.log.InfoContext(ctx, "events: forwarder running", "outbox_topic", outboxTopic)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// txPublisher returns a publisher whose writes belong to tx.
func (q *EventBus) txPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(tx, publisherConfig(false), newWatermillLogger(q.log))
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	if q.opts.forwarder {
		return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic}), nil
	}
	return pub, nil
}

// Ping checks the bus database handle.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops consuming, waits up to 30s for in-flight handlers and closes
// the database handle.
func (q *EventBus) Close() error {
	errs := []error{q.subscriber.Close()}
	if q.fwd != nil {
		errs = append(errs, q.fwd.Close())
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers")
	}

	if q.fwdPub != nil {
		errs = append(errs, q.fwdPub.Close())
	}
	errs = append(errs, q.db.Close())
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("events: close: %w", err)
	}
	return nil
}
