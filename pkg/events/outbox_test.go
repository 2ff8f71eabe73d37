package events

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestNewMessage_SetsMetadataAndDecodes(t *testing.T) {
	eventID, companyID := uuid.New(), uuid.New()
	msg, err := NewMessage(context.Background(), Envelope{
		Topic:     "product.sold",
		EventID:   eventID,
		CompanyID: companyID,
		Payload:   sample{Name: "cola", Count: 3},
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}

	if got := msg.Metadata.Get(MetaEventID); got != eventID.String() {
		t.Errorf("event_id = %q, want %q", got, eventID)
	}
	if got := msg.Metadata.Get(MetaEventVersion); got != "1" {
		t.Errorf("event_version = %q, want 1", got)
	}
	if got := CompanyID(msg); got != companyID {
		t.Errorf("company_id = %s, want %s", got, companyID)
	}

	got, err := Decode[sample](msg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != (sample{Name: "cola", Count: 3}) {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestNewMessage_InjectsTraceContext(t *testing.T) {
	tp := setupTracer()
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	ctx, span := otel.Tracer("test").Start(context.Background(), "sell")
	defer span.End()

	msg, err := NewMessage(ctx, Envelope{Topic: "t", EventID: uuid.New(), Payload: sample{}})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.Metadata.Get("traceparent") == "" {
		t.Fatal("expected traceparent metadata")
	}
}

func TestCompanyID_MissingOrMalformed(t *testing.T) {
	msg := message.NewMessage("id", nil)
	if got := CompanyID(msg); got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
	msg.Metadata.Set(MetaCompanyID, "not-a-uuid")
	if got := CompanyID(msg); got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestDecode_InvalidPayload(t *testing.T) {
	msg := message.NewMessage("id", []byte("{"))
	if _, err := Decode[sample](msg); err == nil {
		t.Fatal("expected decode error")
	}
}
