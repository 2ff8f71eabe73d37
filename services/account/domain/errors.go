package domain

import "errors"

// Sentinel errors for the account domain. Use errors.Is() to check these.
var (
	// ErrInvalidArgument indicates missing or malformed provisioning or signup input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCallerProfileMissing indicates the caller has no persisted profile.
	ErrCallerProfileMissing = errors.New("caller profile not found")

	// ErrNotAdmin indicates the caller's profile role is not admin.
	ErrNotAdmin = errors.New("admin role required")

	// ErrWorkerNotFound indicates the target worker profile does not exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrNotAWorker indicates the target profile exists but is not a worker.
	ErrNotAWorker = errors.New("target is not a worker")

	// ErrEmailTaken indicates an identity with the email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates an unknown email, a wrong password or a disabled identity.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrIdentityNotFound indicates the identity record does not exist.
	ErrIdentityNotFound = errors.New("identity not found")
)

// ErrProfileNotFound indicates no profile exists for a uid. Application
// services translate it into ErrCallerProfileMissing or ErrWorkerNotFound.
var ErrProfileNotFound = errors.New("profile not found")
