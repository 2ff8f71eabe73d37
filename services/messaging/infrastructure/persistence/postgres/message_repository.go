package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/database"
	"github.com/blueledger/blueledger/pkg/events"
	messagingdomain "github.com/blueledger/blueledger/services/messaging/domain"
	domainevents "github.com/blueledger/blueledger/services/messaging/domain/events"
	"github.com/blueledger/blueledger/services/messaging/domain/models"
	"github.com/blueledger/blueledger/services/messaging/infrastructure/persistence/postgres/db"
)

// MessageRepository implements repositories.MessageRepository against PostgreSQL.
type MessageRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewMessageRepository returns a MessageRepository. bus may be nil.
func NewMessageRepository(database *database.Database, bus *events.EventBus) *MessageRepository {
	return &MessageRepository{db: database, bus: bus}
}

// Create inserts m and queues a message.posted event in the same transaction.
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := db.New(tx).InsertMessage(ctx, db.InsertMessageParams{
			ID:        m.ID,
			CompanyID: m.CompanyID,
			FromUid:   m.FromUID,
			FromName:  m.FromName,
			FromEmail: m.FromEmail,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		}); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		id := uuid.New()
		return r.publish(ctx, tx, events.Envelope{
			Topic:     domainevents.TopicMessagePosted,
			EventID:   id,
			Version:   1,
			CompanyID: m.CompanyID,
			Payload: domainevents.MessagePostedEvent{
				EventID:    id,
				Version:    1,
				MessageID:  m.ID,
				CompanyID:  m.CompanyID,
				FromUID:    m.FromUID,
				OccurredAt: m.CreatedAt,
			},
		})
	})
}

// Get returns the message with id, or ErrMessageNotFound.
func (r *MessageRepository) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	row, err := db.New(r.db.DB()).GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, messagingdomain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return rowToMessage(row), nil
}

// ListByCompany returns up to limit of the company's messages, newest first.
func (r *MessageRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.Message, error) {
	rows, err := db.New(r.db.DB()).ListMessagesByCompany(ctx, db.ListMessagesByCompanyParams{
		CompanyID: companyID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return rowsToMessages(rows), nil
}

// ListBySender returns up to limit messages fromUID posted in companyID, newest first.
func (r *MessageRepository) ListBySender(ctx context.Context, companyID, fromUID uuid.UUID, limit int) ([]*models.Message, error) {
	rows, err := db.New(r.db.DB()).ListMessagesBySender(ctx, db.ListMessagesBySenderParams{
		CompanyID: companyID,
		FromUid:   fromUID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return rowsToMessages(rows), nil
}

// Delete removes m within its company. Returns ErrMessageNotFound when the
// row is already gone.
func (r *MessageRepository) Delete(ctx context.Context, m *models.Message, deletedBy uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := db.New(tx).DeleteMessage(ctx, db.DeleteMessageParams{ID: m.ID, CompanyID: m.CompanyID})
		if err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
		if n == 0 {
			return messagingdomain.ErrMessageNotFound
		}
		id := uuid.New()
		return r.publish(ctx, tx, events.Envelope{
			Topic:     domainevents.TopicMessageDeleted,
			EventID:   id,
			Version:   1,
			CompanyID: m.CompanyID,
			Payload: domainevents.MessageDeletedEvent{
				EventID:    id,
				Version:    1,
				MessageID:  m.ID,
				CompanyID:  m.CompanyID,
				DeletedBy:  deletedBy,
				OccurredAt: time.Now().UTC(),
			},
		})
	})
}

func (r *MessageRepository) publish(ctx context.Context, tx *sql.Tx, e events.Envelope) error {
	if r.bus == nil {
		return nil
	}
	if err := r.bus.PublishTx(ctx, tx, e); err != nil {
		return fmt.Errorf("publish %s: %w", e.Topic, err)
	}
	return nil
}

func rowToMessage(row db.Message) *models.Message {
	return &models.Message{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		FromUID:   row.FromUid,
		FromName:  row.FromName,
		FromEmail: row.FromEmail,
		Text:      row.Text,
		CreatedAt: row.CreatedAt,
	}
}

func rowsToMessages(rows []db.Message) []*models.Message {
	out := make([]*models.Message, len(rows))
	for i, row := range rows {
		out[i] = rowToMessage(row)
	}
	return out
}
