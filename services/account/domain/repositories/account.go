package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/services/account/domain/models"
)

// IdentityStore holds login credentials.
type IdentityStore interface {
	// Create inserts an identity. Returns ErrEmailTaken when the email is in
	// use by another uid; inserting the same uid and email again is a no-op.
	Create(ctx context.Context, id *models.Identity) error
	// GetByEmail returns ErrIdentityNotFound when no identity has email.
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	// Delete removes the identity. Deleting a missing identity succeeds.
	Delete(ctx context.Context, uid uuid.UUID) error
}

// ProfileRepository holds profiles and companies.
type ProfileRepository interface {
	// Get returns ErrProfileNotFound when uid has no profile.
	Get(ctx context.Context, uid uuid.UUID) (*models.Profile, error)
	// Create inserts p. Writing the same profile again is a no-op.
	Create(ctx context.Context, p *models.Profile) error
	// CreateWithCompany inserts a company and its admin's profile in one transaction.
	CreateWithCompany(ctx context.Context, c *models.Company, admin *models.Profile) error
	// SetActive flips is_active on the profile of uid within companyID.
	SetActive(ctx context.Context, uid, companyID uuid.UUID, active bool) error
	// Delete removes the profile of uid within companyID. Deleting a missing
	// profile succeeds.
	Delete(ctx context.Context, uid, companyID uuid.UUID) error
	// ListWorkers returns the workers of companyID created by admin, newest first.
	ListWorkers(ctx context.Context, companyID, admin uuid.UUID) ([]*models.Profile, error)
}
