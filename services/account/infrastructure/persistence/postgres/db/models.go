package db

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID        uuid.UUID
	Name      string
	CreatedBy uuid.UUID
	CreatedAt time.Time
}

type Identity struct {
	Uid          uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Disabled     bool
	CreatedAt    time.Time
}

type Profile struct {
	Uid       uuid.UUID
	Name      string
	Email     string
	Role      string
	CompanyID uuid.NullUUID
	CreatedBy uuid.NullUUID
	IsActive  bool
	CreatedAt time.Time
}
