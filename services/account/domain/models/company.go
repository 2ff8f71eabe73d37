package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is a tenant. Every product, profile and message belongs to one.
type Company struct {
	ID        uuid.UUID
	Name      string
	CreatedBy uuid.UUID
	CreatedAt time.Time
}
