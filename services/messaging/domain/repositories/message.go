package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/services/messaging/domain/models"
)

// MessageRepository stores messages. Every list takes the company as a
// mandatory filter.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// Get returns ErrMessageNotFound when id does not exist.
	Get(ctx context.Context, id uuid.UUID) (*models.Message, error)
	// ListByCompany returns the newest messages of companyID first.
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.Message, error)
	// ListBySender returns the newest messages fromUID sent within companyID first.
	ListBySender(ctx context.Context, companyID, fromUID uuid.UUID, limit int) ([]*models.Message, error)
	// Delete removes the message. deletedBy is recorded on the event.
	Delete(ctx context.Context, m *models.Message, deletedBy uuid.UUID) error
}
