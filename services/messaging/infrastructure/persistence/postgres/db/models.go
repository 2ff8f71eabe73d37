package db

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	FromUid   uuid.UUID
	FromName  string
	FromEmail string
	Text      string
	CreatedAt time.Time
}
