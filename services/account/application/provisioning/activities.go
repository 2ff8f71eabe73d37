package provisioning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	"github.com/blueledger/blueledger/services/account/domain/models"
	"github.com/blueledger/blueledger/services/account/domain/repositories"
)

// Error types carried by non-retryable activity failures.
const (
	errTypeEmailTaken       = "EmailTaken"
	errTypeInvalidArgument  = "InvalidArgument"
	errTypeProfileNotFound  = "ProfileNotFound"
	errTypeIdentityNotFound = "IdentityNotFound"
)

var permanentErrors = map[string]error{
	errTypeEmailTaken:       accountdomain.ErrEmailTaken,
	errTypeInvalidArgument:  accountdomain.ErrInvalidArgument,
	errTypeProfileNotFound:  accountdomain.ErrProfileNotFound,
	errTypeIdentityNotFound: accountdomain.ErrIdentityNotFound,
}

// Activities are the individual saga steps. Every method is idempotent.
type Activities struct {
	Identities repositories.IdentityStore
	Profiles   repositories.ProfileRepository
}

// CreateIdentity creates the worker's login.
func (a *Activities) CreateIdentity(ctx context.Context, in ProvisionInput) error {
	return classify(a.Identities.Create(ctx, &models.Identity{
		UID:          in.WorkerUID,
		Email:        in.Email,
		DisplayName:  in.Name,
		PasswordHash: in.PasswordHash,
		CreatedAt:    in.RequestedAt,
	}))
}

// DeleteIdentity removes the worker's login.
func (a *Activities) DeleteIdentity(ctx context.Context, uid uuid.UUID) error {
	return classify(a.Identities.Delete(ctx, uid))
}

// WriteWorkerProfile writes the worker profile scoped to the admin's company.
func (a *Activities) WriteWorkerProfile(ctx context.Context, in ProvisionInput) error {
	p := models.NewWorkerProfile(in.WorkerUID, in.Name, in.Email, in.CompanyID, in.AdminUID, in.RequestedAt)
	return classify(a.Profiles.Create(ctx, p))
}

// DeactivateProfile stops the worker from acting while removal is in progress.
func (a *Activities) DeactivateProfile(ctx context.Context, in RemoveInput) error {
	return classify(a.Profiles.SetActive(ctx, in.WorkerUID, in.CompanyID, false))
}

// ReactivateProfile undoes DeactivateProfile.
func (a *Activities) ReactivateProfile(ctx context.Context, in RemoveInput) error {
	return classify(a.Profiles.SetActive(ctx, in.WorkerUID, in.CompanyID, true))
}

// DeleteProfile removes the worker profile.
func (a *Activities) DeleteProfile(ctx context.Context, in RemoveInput) error {
	return classify(a.Profiles.Delete(ctx, in.WorkerUID, in.CompanyID))
}

// classify marks domain failures as non-retryable. Anything else is treated
// as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for typ, sentinel := range permanentErrors {
		if errors.Is(err, sentinel) {
			return temporal.NewNonRetryableApplicationError(err.Error(), typ, err)
		}
	}
	return err
}

// isPermanent reports whether err was marked non-retryable by classify.
func isPermanent(err error) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.NonRetryable()
}

// causeType returns the application error type of err, or "" for transient
// failures.
func causeType(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type()
	}
	return ""
}
