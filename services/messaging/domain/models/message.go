package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/tenant"
	messagingdomain "github.com/blueledger/blueledger/services/messaging/domain"
)

// MaxTextLength is the longest message body, in characters.
const MaxTextLength = 2000

// Message is a note a company member leaves for the company's admins.
type Message struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	FromUID   uuid.UUID
	FromName  string
	FromEmail string
	Text      string
	CreatedAt time.Time
}

// NewMessage returns a message from sender with text trimmed and checked.
func NewMessage(sender tenant.Caller, text string, now time.Time) (*Message, error) {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return nil, fmt.Errorf("%w: text is required", messagingdomain.ErrInvalidMessage)
	case n > MaxTextLength:
		return nil, fmt.Errorf("%w: text exceeds %d characters", messagingdomain.ErrInvalidMessage, MaxTextLength)
	}
	return &Message{
		ID:        uuid.New(),
		CompanyID: sender.CompanyID,
		FromUID:   sender.UID,
		FromName:  sender.Name,
		FromEmail: sender.Email,
		Text:      text,
		CreatedAt: now.UTC(),
	}, nil
}
