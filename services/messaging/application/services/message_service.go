package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/livequery"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/tenant"
	"github.com/blueledger/blueledger/services/messaging/domain/models"
	"github.com/blueledger/blueledger/services/messaging/domain/repositories"
)

// MessagesCollection is the livequery collection name for messages.
const MessagesCollection = "messages"

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// MessageService lets company members message their admins.
type MessageService struct {
	repo   repositories.MessageRepository
	notify livequery.Publisher
	source livequery.Source
	log    logger.Logger
	now    func() time.Time
}

// NewMessageService returns a MessageService. bus may be nil, which
// disables Subscribe.
func NewMessageService(repo repositories.MessageRepository, bus livequery.Bus, log logger.Logger) *MessageService {
	s := &MessageService{repo: repo, log: log, now: time.Now}
	if bus != nil {
		s.notify, s.source = bus, bus
	}
	return s
}

// Post stores a message from caller.
func (s *MessageService) Post(ctx context.Context, caller tenant.Caller, text string) (*models.Message, error) {
	if caller.CompanyID == uuid.Nil {
		return nil, tenant.ErrNoCompany
	}
	m, err := models.NewMessage(caller, text, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.changed(ctx, m.CompanyID)
	return m, nil
}

// List returns the newest messages first. Admins see the whole company,
// everyone else only what they sent.
func (s *MessageService) List(ctx context.Context, caller tenant.Caller, limit int) ([]*models.Message, error) {
	if caller.CompanyID == uuid.Nil {
		return nil, tenant.ErrNoCompany
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	if caller.IsAdmin() {
		return s.repo.ListByCompany(ctx, caller.CompanyID, limit)
	}
	return s.repo.ListBySender(ctx, caller.CompanyID, caller.UID, limit)
}

// Delete removes a message of the caller's company.
func (s *MessageService) Delete(ctx context.Context, caller tenant.Caller, id uuid.UUID) error {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := tenant.Check(caller, m.CompanyID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m, caller.UID); err != nil {
		return err
	}
	s.changed(ctx, m.CompanyID)
	return nil
}

// Subscribe streams what List would return, refreshed after every post or delete.
func (s *MessageService) Subscribe(ctx context.Context, caller tenant.Caller) (<-chan livequery.Snapshot[*models.Message], error) {
	if s.source == nil {
		return nil, errors.New("messaging: live queries not configured")
	}
	if caller.CompanyID == uuid.Nil {
		return nil, tenant.ErrNoCompany
	}
	return livequery.Subscribe(ctx, s.source, livequery.Channel(MessagesCollection, caller.CompanyID),
		func(ctx context.Context) ([]*models.Message, error) {
			return s.List(ctx, caller, defaultListLimit)
		}, s.log)
}

func (s *MessageService) changed(ctx context.Context, companyID uuid.UUID) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(context.WithoutCancel(ctx), livequery.Channel(MessagesCollection, companyID)); err != nil {
		s.log.WarnContext(ctx, "messaging: notify failed", "company_id", companyID, "error", err)
	}
}
