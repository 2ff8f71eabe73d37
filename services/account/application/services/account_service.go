package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/saga"
	"github.com/blueledger/blueledger/pkg/security"
	"github.com/blueledger/blueledger/pkg/tenant"
	"github.com/blueledger/blueledger/services/account/application/provisioning"
	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	"github.com/blueledger/blueledger/services/account/domain/models"
	"github.com/blueledger/blueledger/services/account/domain/repositories"
	domainsvcs "github.com/blueledger/blueledger/services/account/domain/services"
)

// TokenMinter issues bearer tokens for a uid. *auth.TokenIssuer implements it.
type TokenMinter interface {
	Mint(now time.Time, uid uuid.UUID) (string, time.Time, error)
}

// AccountService owns identities, profiles and worker provisioning.
type AccountService struct {
	identities repositories.IdentityStore
	profiles   repositories.ProfileRepository
	runner     provisioning.Runner
	tokens     TokenMinter
	argon      security.ArgonParams
	log        logger.Logger
	now        func() time.Time
	newUID     func() uuid.UUID
}

// AccountServiceOption customizes an AccountService.
type AccountServiceOption func(*AccountService)

// WithTokens enables bearer tokens on Login.
func WithTokens(t TokenMinter) AccountServiceOption {
	return func(s *AccountService) { s.tokens = t }
}

// WithPasswordParams overrides the Argon2id cost parameters.
func WithPasswordParams(p security.ArgonParams) AccountServiceOption {
	return func(s *AccountService) { s.argon = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) AccountServiceOption {
	return func(s *AccountService) { s.now = now }
}

// NewAccountService returns an AccountService. runner executes the worker
// provisioning sagas.
func NewAccountService(identities repositories.IdentityStore, profiles repositories.ProfileRepository, runner provisioning.Runner, log logger.Logger, opts ...AccountServiceOption) *AccountService {
	s := &AccountService{
		identities: identities,
		profiles:   profiles,
		runner:     runner,
		argon:      security.DefaultParams,
		log:        log,
		now:        time.Now,
		newUID:     uuid.New,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ResolveCaller implements auth.CallerResolver.
func (s *AccountService) ResolveCaller(ctx context.Context, uid uuid.UUID) (tenant.Caller, error) {
	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, accountdomain.ErrProfileNotFound) {
			return tenant.Caller{}, auth.ErrProfileMissing
		}
		return tenant.Caller{}, err
	}
	if !p.IsActive {
		return tenant.Caller{}, auth.ErrProfileInactive
	}
	return p.Caller(), nil
}

// requireAdmin loads the caller's profile and checks it may manage workers.
// It runs before anything is written.
func (s *AccountService) requireAdmin(ctx context.Context, callerUID uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.Get(ctx, callerUID)
	if err != nil {
		if errors.Is(err, accountdomain.ErrProfileNotFound) {
			return nil, accountdomain.ErrCallerProfileMissing
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, auth.ErrProfileInactive
	}
	if !p.IsAdmin() {
		return nil, accountdomain.ErrNotAdmin
	}
	if p.CompanyID == uuid.Nil {
		return nil, tenant.ErrNoCompany
	}
	return p, nil
}

// CreateWorker provisions a worker in the caller's company and returns the
// new worker's uid. Only an admin with a company may do so; the check
// happens before any identity is created.
func (s *AccountService) CreateWorker(ctx context.Context, callerUID uuid.UUID, name, email, tempPassword string) (uuid.UUID, error) {
	admin, err := s.requireAdmin(ctx, callerUID)
	if err != nil {
		return uuid.Nil, err
	}
	creds, err := domainsvcs.ValidateCredentials(name, email, tempPassword)
	if err != nil {
		return uuid.Nil, err
	}
	hash, err := security.HashPassword(creds.Password, s.argon)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	in := provisioning.ProvisionInput{
		WorkerUID:    s.newUID(),
		CompanyID:    admin.CompanyID,
		AdminUID:     admin.UID,
		Name:         creds.Name,
		Email:        creds.Email,
		PasswordHash: hash,
		RequestedAt:  s.now().UTC(),
	}
	res, err := s.runner.Provision(ctx, in)
	if err != nil {
		return uuid.Nil, s.provisioningError(ctx, "provision worker", in.WorkerUID, res.State, err)
	}

	s.log.InfoContext(ctx, "worker provisioned", "worker_uid", in.WorkerUID, "company_id", in.CompanyID)
	return in.WorkerUID, nil
}

// DeleteWorker removes a worker of the caller's company.
func (s *AccountService) DeleteWorker(ctx context.Context, callerUID, workerUID uuid.UUID) error {
	admin, err := s.requireAdmin(ctx, callerUID)
	if err != nil {
		return err
	}
	target, err := s.profiles.Get(ctx, workerUID)
	if err != nil {
		if errors.Is(err, accountdomain.ErrProfileNotFound) {
			return accountdomain.ErrWorkerNotFound
		}
		return err
	}
	if !target.IsWorker() {
		return accountdomain.ErrNotAWorker
	}
	if err := tenant.Check(admin.Caller(), target.CompanyID); err != nil {
		return err
	}

	res, err := s.runner.Remove(ctx, provisioning.RemoveInput{WorkerUID: workerUID, CompanyID: target.CompanyID})
	if err != nil {
		return s.provisioningError(ctx, "remove worker", workerUID, res.State, err)
	}

	s.log.InfoContext(ctx, "worker removed", "worker_uid", workerUID, "company_id", target.CompanyID)
	return nil
}

// provisioningError logs the saga outcome and returns the domain error a
// client can act on. Anything else stays wrapped and surfaces as a 500.
func (s *AccountService) provisioningError(ctx context.Context, op string, workerUID uuid.UUID, state models.ProvisioningState, err error) error {
	level := s.log.WarnContext
	if errors.Is(err, saga.ErrCompensationFailed) || errors.Is(err, saga.ErrStalled) {
		level = s.log.ErrorContext
	}
	level(ctx, op+" failed", "worker_uid", workerUID, "state", state, "error", err)

	for _, sentinel := range []error{
		accountdomain.ErrEmailTaken,
		accountdomain.ErrInvalidArgument,
		accountdomain.ErrProfileNotFound,
	} {
		if errors.Is(err, sentinel) {
			if sentinel == accountdomain.ErrProfileNotFound {
				return accountdomain.ErrWorkerNotFound
			}
			return sentinel
		}
	}
	return fmt.Errorf("%s (%s): %w", op, state, err)
}

// ListWorkers returns the workers the caller created in their company.
func (s *AccountService) ListWorkers(ctx context.Context, callerUID uuid.UUID) ([]*models.Profile, error) {
	admin, err := s.requireAdmin(ctx, callerUID)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListWorkers(ctx, admin.CompanyID, admin.UID)
}

// SignupInput is the self-service registration of a company owner.
type SignupInput struct {
	Name        string
	Email       string
	Password    string
	CompanyName string
}

// SignupAdmin creates an identity, a company and the admin profile that owns
// it. The identity is deleted again if the company cannot be written.
func (s *AccountService) SignupAdmin(ctx context.Context, in SignupInput) (*models.Profile, error) {
	creds, err := domainsvcs.ValidateCredentials(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	companyName, err := domainsvcs.ValidateCompanyName(in.CompanyName)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(creds.Password, s.argon)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	uid := s.newUID()
	company := &models.Company{ID: s.newUID(), Name: companyName, CreatedBy: uid, CreatedAt: now}
	admin := models.NewAdminProfile(uid, creds.Name, creds.Email, company.ID, now)

	_, err = saga.New("signup_admin", s.log).
		Then(saga.Step{
			Name: "create_identity",
			Do: func(ctx context.Context) error {
				err := s.identities.Create(ctx, &models.Identity{
					UID:          uid,
					Email:        creds.Email,
					DisplayName:  creds.Name,
					PasswordHash: hash,
					CreatedAt:    now,
				})
				if errors.Is(err, accountdomain.ErrEmailTaken) {
					return saga.Permanent(err)
				}
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.identities.Delete(ctx, uid)
			},
		}).
		Then(saga.Step{
			Name: "create_company",
			Do: func(ctx context.Context) error {
				return s.profiles.CreateWithCompany(ctx, company, admin)
			},
		}).
		Run(ctx)
	if err != nil {
		if errors.Is(err, accountdomain.ErrEmailTaken) {
			return nil, accountdomain.ErrEmailTaken
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.InfoContext(ctx, "company registered", "uid", uid, "company_id", company.ID)
	return admin, nil
}

// LoginResult is a successful authentication.
type LoginResult struct {
	UID       uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// Login verifies email and password. Unknown emails, wrong passwords and
// disabled identities all report ErrInvalidCredentials. Token is empty when
// the service has no TokenMinter.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	id, err := s.identities.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, accountdomain.ErrIdentityNotFound) {
			return LoginResult{}, accountdomain.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	ok, err := security.VerifyPassword(password, id.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok || id.Disabled {
		s.log.WarnContext(ctx, "login rejected", "uid", id.UID)
		return LoginResult{}, accountdomain.ErrInvalidCredentials
	}

	res := LoginResult{UID: id.UID}
	if s.tokens != nil {
		res.Token, res.ExpiresAt, err = s.tokens.Mint(s.now(), id.UID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("mint token: %w", err)
		}
	}
	return res, nil
}

// Me returns the caller's own profile.
func (s *AccountService) Me(ctx context.Context, uid uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.Get(ctx, uid)
	if errors.Is(err, accountdomain.ErrProfileNotFound) {
		return nil, accountdomain.ErrCallerProfileMissing
	}
	return p, err
}
