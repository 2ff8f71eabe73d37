package domain

import "errors"

// Sentinel errors for the messaging domain.
var (
	// ErrMessageNotFound indicates the message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidMessage indicates empty or oversized message text.
	ErrInvalidMessage = errors.New("invalid message")
)
