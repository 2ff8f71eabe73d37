// Package tenant carries the authenticated caller through the request and
// guards every row-level operation against cross-company access.
//
// A Caller is only ever built from the caller's persisted profile, never from
// request input. Repositories take the CompanyID as a mandatory predicate on
// list queries; single-row mutations call Check against the row they read
// inside their transaction.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Role is the authorization role stored on a profile.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleWorker
}

// ErrForeignTenant is returned when a caller touches a row owned by another company.
var ErrForeignTenant = errors.New("not your company")

// ErrNoCompany is returned when the caller's profile has no company assigned.
var ErrNoCompany = errors.New("no company assigned")

// ErrNoCaller is returned when the context carries no resolved caller.
var ErrNoCaller = errors.New("caller not found in context")

// Caller is the identity behind a request, resolved from the persisted profile.
type Caller struct {
	UID       uuid.UUID
	CompanyID uuid.UUID
	Role      Role
	Name      string
	Email     string
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// DisplayName is the name recorded on ledger entries; falls back to email.
func (c Caller) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

// Check returns ErrForeignTenant unless ownerCompanyID is the caller's company.
// A caller without a company never matches.
func Check(c Caller, ownerCompanyID uuid.UUID) error {
	if c.CompanyID == uuid.Nil || c.CompanyID != ownerCompanyID {
		return ErrForeignTenant
	}
	return nil
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// FromContext returns the caller stored by WithCaller.
func FromContext(ctx context.Context) (Caller, error) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || c.UID == uuid.Nil {
		return Caller{}, ErrNoCaller
	}
	return c, nil
}
