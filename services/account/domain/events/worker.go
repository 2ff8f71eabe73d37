package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics published by the account context.
const (
	TopicWorkerProvisioned = "worker.provisioned"
	TopicWorkerRemoved     = "worker.removed"
	TopicCompanyCreated    = "company.created"
)

// WorkerProvisionedEvent is published when a worker profile is written.
type WorkerProvisionedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	WorkerUID  uuid.UUID `json:"worker_uid"`
	CompanyID  uuid.UUID `json:"company_id"`
	CreatedBy  uuid.UUID `json:"created_by"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WorkerRemovedEvent is published when a worker profile is deleted.
type WorkerRemovedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	WorkerUID  uuid.UUID `json:"worker_uid"`
	CompanyID  uuid.UUID `json:"company_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CompanyCreatedEvent is published when an admin signs up with a new company.
type CompanyCreatedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	CompanyID  uuid.UUID `json:"company_id"`
	Name       string    `json:"name"`
	AdminUID   uuid.UUID `json:"admin_uid"`
	OccurredAt time.Time `json:"occurred_at"`
}
