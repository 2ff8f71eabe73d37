package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity is a login credential. It lives in its own store, separate from
// profiles, so creating a worker touches two stores.
type Identity struct {
	UID          uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
