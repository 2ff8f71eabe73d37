package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/tenant"
)

// Profile is the persisted record that decides what an identity may do. Its
// role and company are the only source of authorization; request input is
// never trusted for either.
type Profile struct {
	UID       uuid.UUID
	Name      string
	Email     string
	Role      tenant.Role
	CompanyID uuid.UUID // uuid.Nil until the admin has a company
	CreatedBy uuid.UUID // admin who provisioned a worker; uuid.Nil for admins
	IsActive  bool
	CreatedAt time.Time
}

// NewWorkerProfile returns the profile written for a worker provisioned by
// adminUID into companyID.
func NewWorkerProfile(uid uuid.UUID, name, email string, companyID, adminUID uuid.UUID, now time.Time) *Profile {
	return &Profile{
		UID:       uid,
		Name:      name,
		Email:     email,
		Role:      tenant.RoleWorker,
		CompanyID: companyID,
		CreatedBy: adminUID,
		IsActive:  true,
		CreatedAt: now.UTC(),
	}
}

// NewAdminProfile returns the profile of an admin who owns companyID.
func NewAdminProfile(uid uuid.UUID, name, email string, companyID uuid.UUID, now time.Time) *Profile {
	return &Profile{
		UID:       uid,
		Name:      name,
		Email:     email,
		Role:      tenant.RoleAdmin,
		CompanyID: companyID,
		IsActive:  true,
		CreatedAt: now.UTC(),
	}
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == tenant.RoleAdmin
}

// IsWorker reports whether the profile carries the worker role.
func (p *Profile) IsWorker() bool {
	return p.Role == tenant.RoleWorker
}

// Caller converts the profile into the identity the rest of the system
// authorizes against.
func (p *Profile) Caller() tenant.Caller {
	return tenant.Caller{
		UID:       p.UID,
		CompanyID: p.CompanyID,
		Role:      p.Role,
		Name:      p.Name,
		Email:     p.Email,
	}
}
