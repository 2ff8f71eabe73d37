// Package provisioning creates and removes worker accounts across the
// identity store and the profile store, which share no transaction. Each
// operation runs as a saga either in-process or as a Temporal workflow; both
// runners share the same activities and report the same errors.
package provisioning

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/services/account/domain/models"
)

// ProvisionInput describes a worker to create. The uid is chosen up front
// so every step can be replayed safely.
type ProvisionInput struct {
	WorkerUID    uuid.UUID `json:"worker_uid"`
	CompanyID    uuid.UUID `json:"company_id"`
	AdminUID     uuid.UUID `json:"admin_uid"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	RequestedAt  time.Time `json:"requested_at"`
}

// RemoveInput describes a worker to remove.
type RemoveInput struct {
	WorkerUID uuid.UUID `json:"worker_uid"`
	CompanyID uuid.UUID `json:"company_id"`
}

// Result is the terminal state of a run.
type Result struct {
	WorkerUID uuid.UUID                `json:"worker_uid"`
	State     models.ProvisioningState `json:"state"`
}

// Runner executes provisioning sagas. On failure the error matches the
// failing step's cause (for example ErrEmailTaken) and one of
// saga.ErrRolledBack, saga.ErrCompensationFailed or saga.ErrStalled.
type Runner interface {
	Provision(ctx context.Context, in ProvisionInput) (Result, error)
	Remove(ctx context.Context, in RemoveInput) (Result, error)
}
