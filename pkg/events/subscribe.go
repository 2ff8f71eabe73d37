package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/blueledger/blueledger/pkg/logger"
)

const tracerName = "github.com/blueledger/blueledger/events"

// Handler processes one domain event.
type Handler func(ctx context.Context, msg *message.Message) error

// ErrPoison marks a message no retry can fix, such as an undecodable payload.
// It is acked so it stops blocking the topic, and still reported.
var ErrPoison = errors.New("events: poison message")

// Poison wraps err so the bus acks the message instead of retrying it.
func Poison(err error) error {
	return fmt.Errorf("%w: %w", ErrPoison, err)
}

// Subscribe consumes topic until ctx ends or the bus closes.
//
// Each message runs in a consumer span linked to the publisher's trace, with
// event_id and company_id bound to the log context. A handler error is retried
// with exponential backoff; once attempts are exhausted the message is nacked
// for redelivery. Poison errors are acked at once.
//
// Failures are sent on the returned channel (capacity 100), which the caller
// must drain. It closes after the last in-flight handler returns.
func (q *EventBus) Subscribe(ctx context.Context, topic string, h Handler) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, 100)
	c := consumer{topic: topic, handler: h, log: q.log, attempts: q.opts.maxAttempts, base: q.opts.retryBase}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)
		for msg := range ch {
			err := c.consume(ctx, msg)
			if err == nil {
				continue
			}
			select {
			case errCh <- err:
			default:
				q.log.ErrorContext(ctx, "events: error channel full, dropping error", "topic", topic, "error", err)
			}
		}
	}()
	return errCh, nil
}

type consumer struct {
	topic    string
	handler  Handler
	log      logger.Logger
	attempts int
	base     time.Duration
}

// consume runs the handler for msg and acks or nacks it.
func (c consumer) consume(ctx context.Context, msg *message.Message) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
	eventID, companyID := msg.Metadata.Get(MetaEventID), msg.Metadata.Get(MetaCompanyID)
	ctx = logger.WithContextAttrs(ctx, "topic", c.topic, "event_id", eventID, "company_id", companyID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "consume "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.destination.name", c.topic),
			attribute.String("messaging.message.id", msg.UUID),
			attribute.String("event.id", eventID),
			attribute.String("tenant.company_id", companyID),
		),
	)
	defer span.End()

	err := c.run(ctx, msg)
	switch {
	case err == nil:
		msg.Ack()
		return nil
	case errors.Is(err, ErrPoison):
		c.log.ErrorContext(ctx, "events: dropping poison message", "error", err)
		msg.Ack()
	default:
		msg.Nack()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("%s %s: %w", c.topic, msg.UUID, err)
}

// run calls the handler up to c.attempts times with exponential backoff.
func (c consumer) run(ctx context.Context, msg *message.Message) error {
	backoff := retry.WithMaxRetries(uint64(max(c.attempts-1, 0)), retry.NewExponential(c.base))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.handler(ctx, msg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrPoison):
			return err
		}
		if attempt < c.attempts {
			c.log.WarnContext(ctx, "events: handler failed, retrying", "attempt", attempt, "error", err)
		}
		return retry.RetryableError(err)
	})
	if err == nil || errors.Is(err, ErrPoison) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("handler failed after %d attempts: %w", attempt, err)
}
