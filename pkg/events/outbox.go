package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Metadata keys set on every domain event.
const (
	MetaEventID      = "event_id"
	MetaEventVersion = "event_version"
	MetaCompanyID    = "company_id"
)

// Envelope describes a domain event about to be published.
type Envelope struct {
	Topic     string
	EventID   uuid.UUID
	Version   int
	CompanyID uuid.UUID // uuid.Nil for events outside any tenant
	Payload   any
}

// NewMessage encodes e as a JSON Watermill message carrying the event
// metadata and the OTel trace context of ctx.
func NewMessage(ctx context.Context, e Envelope) (*message.Message, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal %s: %w", e.Topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetaEventID, e.EventID.String())
	msg.Metadata.Set(MetaEventVersion, strconv.Itoa(max(e.Version, 1)))
	if e.CompanyID != uuid.Nil {
		msg.Metadata.Set(MetaCompanyID, e.CompanyID.String())
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}
	return msg, nil
}

// PublishTx writes e to the outbox inside tx, so the event is only delivered
// if tx commits.
func (q *EventBus) PublishTx(ctx context.Context, tx *sql.Tx, e Envelope) error {
	msg, err := NewMessage(ctx, e)
	if err != nil {
		return err
	}
	pub, err := q.txPublisher(tx)
	if err != nil {
		return err
	}
	if err := pub.Publish(e.Topic, msg); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", e.Topic, err)
	}
	return nil
}

// Decode unmarshals a message payload published with NewMessage. A payload
// that does not decode is poison.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, Poison(fmt.Errorf("decode %s: %w", msg.UUID, err))
	}
	return v, nil
}

// CompanyID returns the tenant a message belongs to, or uuid.Nil.
func CompanyID(msg *message.Message) uuid.UUID {
	id, err := uuid.Parse(msg.Metadata.Get(MetaCompanyID))
	if err != nil {
		return uuid.Nil
	}
	return id
}
