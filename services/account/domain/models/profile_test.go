package models

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/tenant"
)

func TestNewWorkerProfile_InheritsAdminCompany(t *testing.T) {
	admin := NewAdminProfile(uuid.New(), "Owner", "owner@shop.io", uuid.New(), time.Now())
	w := NewWorkerProfile(uuid.New(), "Ana", "ana@shop.io", admin.CompanyID, admin.UID, time.Now())

	if w.Role != tenant.RoleWorker || !w.IsWorker() || w.IsAdmin() {
		t.Fatalf("expected worker role, got %s", w.Role)
	}
	if w.CompanyID != admin.CompanyID || w.CreatedBy != admin.UID || !w.IsActive {
		t.Fatalf("unexpected worker profile %+v", w)
	}

	c := w.Caller()
	if c.UID != w.UID || c.CompanyID != admin.CompanyID || c.Role != tenant.RoleWorker || c.Email != "ana@shop.io" {
		t.Fatalf("unexpected caller %+v", c)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Shop.IO "); got != "ana@shop.io" {
		t.Fatalf("unexpected %q", got)
	}
}
