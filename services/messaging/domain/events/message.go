package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics published by the messaging context.
const (
	TopicMessagePosted  = "message.posted"
	TopicMessageDeleted = "message.deleted"
)

// MessagePostedEvent is published when a message is stored.
type MessagePostedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	MessageID  uuid.UUID `json:"message_id"`
	CompanyID  uuid.UUID `json:"company_id"`
	FromUID    uuid.UUID `json:"from_uid"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MessageDeletedEvent is published when an admin deletes a message.
type MessageDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	MessageID  uuid.UUID `json:"message_id"`
	CompanyID  uuid.UUID `json:"company_id"`
	DeletedBy  uuid.UUID `json:"deleted_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
