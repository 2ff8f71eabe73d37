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
	"github.com/blueledger/blueledger/pkg/tenant"
	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	domainevents "github.com/blueledger/blueledger/services/account/domain/events"
	"github.com/blueledger/blueledger/services/account/domain/models"
	"github.com/blueledger/blueledger/services/account/infrastructure/persistence/postgres/db"
)

// ProfileRepository implements repositories.ProfileRepository against PostgreSQL.
type ProfileRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewProfileRepository returns a ProfileRepository backed by the given pool.
// bus may be nil, in which case no events are written to the outbox.
func NewProfileRepository(database *database.Database, bus *events.EventBus) *ProfileRepository {
	return &ProfileRepository{db: database, bus: bus}
}

// Get loads the profile of uid and rejects rows with an unknown role.
func (r *ProfileRepository) Get(ctx context.Context, uid uuid.UUID) (*models.Profile, error) {
	row, err := db.New(r.db.DB()).GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountdomain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return rowToProfile(row)
}

// Create inserts p and, for workers, publishes worker.provisioned in the
// same transaction. A replay of an existing uid is a no-op.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := db.New(tx).InsertProfile(ctx, profileToParams(p))
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		if n == 0 || !p.IsWorker() || r.bus == nil {
			return nil
		}
		return r.publish(ctx, tx, events.Envelope{
			Topic:     domainevents.TopicWorkerProvisioned,
			EventID:   uuid.New(),
			Version:   1,
			CompanyID: p.CompanyID,
			Payload: domainevents.WorkerProvisionedEvent{
				WorkerUID:  p.UID,
				CompanyID:  p.CompanyID,
				CreatedBy:  p.CreatedBy,
				Email:      p.Email,
				OccurredAt: p.CreatedAt,
			},
		})
	})
}

// CreateWithCompany inserts the company and its first admin together.
func (r *ProfileRepository) CreateWithCompany(ctx context.Context, c *models.Company, admin *models.Profile) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		if err := q.InsertCompany(ctx, db.InsertCompanyParams{
			ID:        c.ID,
			Name:      c.Name,
			CreatedBy: c.CreatedBy,
			CreatedAt: c.CreatedAt,
		}); err != nil {
			return fmt.Errorf("insert company: %w", err)
		}
		n, err := q.InsertProfile(ctx, profileToParams(admin))
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		if n != 1 {
			return fmt.Errorf("insert profile: uid %s already has a profile", admin.UID)
		}
		if r.bus == nil {
			return nil
		}
		return r.publish(ctx, tx, events.Envelope{
			Topic:     domainevents.TopicCompanyCreated,
			EventID:   uuid.New(),
			Version:   1,
			CompanyID: c.ID,
			Payload: domainevents.CompanyCreatedEvent{
				CompanyID:  c.ID,
				Name:       c.Name,
				AdminUID:   admin.UID,
				OccurredAt: c.CreatedAt,
			},
		})
	})
}

// SetActive flips is_active. Returns ErrProfileNotFound when no profile of
// uid exists within companyID.
func (r *ProfileRepository) SetActive(ctx context.Context, uid, companyID uuid.UUID, active bool) error {
	n, err := db.New(r.db.DB()).SetProfileActive(ctx, db.SetProfileActiveParams{Uid: uid, CompanyID: companyID, IsActive: active})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return accountdomain.ErrProfileNotFound
	}
	return nil
}

// Delete removes the profile and publishes worker.removed when a row was deleted.
func (r *ProfileRepository) Delete(ctx context.Context, uid, companyID uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := db.New(tx).DeleteProfile(ctx, db.DeleteProfileParams{Uid: uid, CompanyID: companyID})
		if err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if n == 0 || r.bus == nil {
			return nil
		}
		return r.publish(ctx, tx, events.Envelope{
			Topic:     domainevents.TopicWorkerRemoved,
			EventID:   uuid.New(),
			Version:   1,
			CompanyID: companyID,
			Payload: domainevents.WorkerRemovedEvent{
				WorkerUID:  uid,
				CompanyID:  companyID,
				OccurredAt: time.Now().UTC(),
			},
		})
	})
}

// ListWorkers returns the workers admin created within companyID.
func (r *ProfileRepository) ListWorkers(ctx context.Context, companyID, admin uuid.UUID) ([]*models.Profile, error) {
	rows, err := db.New(r.db.DB()).ListWorkersByAdmin(ctx, db.ListWorkersByAdminParams{CompanyID: companyID, CreatedBy: admin})
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}
	out := make([]*models.Profile, 0, len(rows))
	for _, row := range rows {
		p, err := rowToProfile(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProfileRepository) publish(ctx context.Context, tx *sql.Tx, e events.Envelope) error {
	switch p := e.Payload.(type) {
	case domainevents.WorkerProvisionedEvent:
		p.EventID, p.Version = e.EventID, e.Version
		e.Payload = p
	case domainevents.WorkerRemovedEvent:
		p.EventID, p.Version = e.EventID, e.Version
		e.Payload = p
	case domainevents.CompanyCreatedEvent:
		p.EventID, p.Version = e.EventID, e.Version
		e.Payload = p
	}
	if err := r.bus.PublishTx(ctx, tx, e); err != nil {
		return fmt.Errorf("publish %s: %w", e.Topic, err)
	}
	return nil
}

func rowToProfile(row db.Profile) (*models.Profile, error) {
	role := tenant.Role(row.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("profile %s: unknown role %q", row.Uid, row.Role)
	}
	p := &models.Profile{
		UID:       row.Uid,
		Name:      row.Name,
		Email:     row.Email,
		Role:      role,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
	}
	if row.CompanyID.Valid {
		p.CompanyID = row.CompanyID.UUID
	}
	if row.CreatedBy.Valid {
		p.CreatedBy = row.CreatedBy.UUID
	}
	return p, nil
}

func profileToParams(p *models.Profile) db.InsertProfileParams {
	return db.InsertProfileParams{
		Uid:       p.UID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      string(p.Role),
		CompanyID: uuid.NullUUID{UUID: p.CompanyID, Valid: p.CompanyID != uuid.Nil},
		CreatedBy: uuid.NullUUID{UUID: p.CreatedBy, Valid: p.CreatedBy != uuid.Nil},
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}
