package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/database"
	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	"github.com/blueledger/blueledger/services/account/domain/models"
	"github.com/blueledger/blueledger/services/account/infrastructure/persistence/postgres/db"
)

// IdentityStore implements repositories.IdentityStore against PostgreSQL.
type IdentityStore struct {
	db *database.Database
}

// NewIdentityStore returns an IdentityStore backed by the given pool.
func NewIdentityStore(database *database.Database) *IdentityStore {
	return &IdentityStore{db: database}
}

// Create inserts id. A replay of the same uid and email is accepted so a
// retried saga step stays idempotent.
func (s *IdentityStore) Create(ctx context.Context, id *models.Identity) error {
	q := db.New(s.db.DB())
	n, err := q.InsertIdentity(ctx, db.InsertIdentityParams{
		Uid:          id.UID,
		Email:        id.Email,
		PasswordHash: id.PasswordHash,
		DisplayName:  id.DisplayName,
		Disabled:     id.Disabled,
		CreatedAt:    id.CreatedAt,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return accountdomain.ErrEmailTaken
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	if n == 1 {
		return nil
	}

	existing, err := q.GetIdentityByUID(ctx, id.UID)
	if err != nil {
		return fmt.Errorf("query identity: %w", err)
	}
	if !equalFoldEmail(existing.Email, id.Email) {
		return fmt.Errorf("identity %s already exists with a different email", id.UID)
	}
	return nil
}

// GetByEmail looks up an identity case-insensitively.
func (s *IdentityStore) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	row, err := db.New(s.db.DB()).GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountdomain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}
	return &models.Identity{
		UID:          row.Uid,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		PasswordHash: row.PasswordHash,
		Disabled:     row.Disabled,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// Delete removes the identity of uid if present.
func (s *IdentityStore) Delete(ctx context.Context, uid uuid.UUID) error {
	if err := db.New(s.db.DB()).DeleteIdentity(ctx, uid); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

func equalFoldEmail(a, b string) bool {
	return models.NormalizeEmail(a) == models.NormalizeEmail(b)
}
