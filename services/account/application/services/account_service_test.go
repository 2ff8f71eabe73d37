package services

import (
	"context"
	"errors"
	"io"
	"testing"
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
)

var (
	discard = logger.NewWithWriter(io.Discard, "error")
	fixedT  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// cheap parameters keep the suite fast; hashes embed their parameters.
	testArgon = security.ArgonParams{Memory: 64, Time: 1, Parallelism: 1, SaltLen: 8, KeyLen: 16}
)

type fakeMinter struct{}

func (fakeMinter) Mint(now time.Time, uid uuid.UUID) (string, time.Time, error) {
	return "token-" + uid.String(), now.Add(time.Hour), nil
}

type fixture struct {
	svc      *AccountService
	ids      *memIdentities
	profiles *memProfiles
	company  uuid.UUID
	admin    *models.Profile
}

// newFixture wires the service to the in-process saga runner over memory
// stores and seeds one admin.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ids: newMemIdentities(), profiles: newMemProfiles(), company: uuid.New()}
	runner := provisioning.NewInlineRunner(&provisioning.Activities{Identities: f.ids, Profiles: f.profiles}, discard)
	f.svc = NewAccountService(f.ids, f.profiles, runner, discard,
		WithTokens(fakeMinter{}),
		WithPasswordParams(testArgon),
		WithClock(func() time.Time { return fixedT }),
	)
	f.admin = models.NewAdminProfile(uuid.New(), "Owner", "owner@shop.io", f.company, fixedT)
	f.profiles.put(f.admin)
	return f
}

func (f *fixture) seedWorker(company uuid.UUID) *models.Profile {
	w := models.NewWorkerProfile(uuid.New(), "Ana", uuid.NewString()+"@shop.io", company, f.admin.UID, fixedT)
	f.profiles.put(w)
	f.ids.byUID[w.UID] = models.Identity{UID: w.UID, Email: w.Email}
	return w
}

func TestCreateWorker_Success(t *testing.T) {
	f := newFixture(t)

	uid, err := f.svc.CreateWorker(context.Background(), f.admin.UID, "  Ana  ", "ANA@Shop.io", "secret1")
	if err != nil {
		t.Fatalf("CreateWorker: %v", err)
	}
	p, err := f.profiles.Get(context.Background(), uid)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Role != tenant.RoleWorker || p.CompanyID != f.company || p.CreatedBy != f.admin.UID {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.Name != "Ana" || p.Email != "ana@shop.io" {
		t.Fatalf("input not normalized: %+v", p)
	}

	res, err := f.svc.Login(context.Background(), "ana@shop.io", "secret1")
	if err != nil || res.UID != uid {
		t.Fatalf("worker cannot log in: %+v, %v", res, err)
	}
}

func TestCreateWorker_Preconditions(t *testing.T) {
	f := newFixture(t)
	worker := f.seedWorker(f.company)
	orphan := models.NewAdminProfile(uuid.New(), "Solo", "solo@shop.io", uuid.Nil, fixedT)
	f.profiles.put(orphan)
	inactive := models.NewAdminProfile(uuid.New(), "Gone", "gone@shop.io", f.company, fixedT)
	inactive.IsActive = false
	f.profiles.put(inactive)

	tests := []struct {
		name    string
		caller  uuid.UUID
		email   string
		pass    string
		wantErr error
	}{
		{"worker caller", worker.UID, "new@shop.io", "secret1", accountdomain.ErrNotAdmin},
		{"unknown caller", uuid.New(), "new@shop.io", "secret1", accountdomain.ErrCallerProfileMissing},
		{"admin without company", orphan.UID, "new@shop.io", "secret1", tenant.ErrNoCompany},
		{"inactive admin", inactive.UID, "new@shop.io", "secret1", auth.ErrProfileInactive},
		{"short password", f.admin.UID, "new@shop.io", "12345", accountdomain.ErrInvalidArgument},
		{"bad email", f.admin.UID, "not-an-email", "secret1", accountdomain.ErrInvalidArgument},
		// a worker with an invalid request still gets the role error first
		{"worker caller with bad input", worker.UID, "", "", accountdomain.ErrNotAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.ids.creates
			_, err := f.svc.CreateWorker(context.Background(), tt.caller, "New", tt.email, tt.pass)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if f.ids.creates != before {
				t.Fatal("no identity may be created when a precondition fails")
			}
		})
	}
}

func TestCreateWorker_EmailTaken(t *testing.T) {
	f := newFixture(t)
	f.ids.byUID[uuid.New()] = models.Identity{Email: "ana@shop.io"}

	_, err := f.svc.CreateWorker(context.Background(), f.admin.UID, "Ana", "ana@shop.io", "secret1")
	if !errors.Is(err, accountdomain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateWorker_ProfileFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.profiles.failCreate = errors.New("profiles unavailable")
	before := f.ids.count()

	_, err := f.svc.CreateWorker(context.Background(), f.admin.UID, "Ana", "ana@shop.io", "secret1")
	if !errors.Is(err, saga.ErrRolledBack) {
		t.Fatalf("expected ErrRolledBack, got %v", err)
	}
	if f.ids.count() != before {
		t.Fatal("identity must be deleted on rollback")
	}
}

func TestDeleteWorker(t *testing.T) {
	f := newFixture(t)
	mine := f.seedWorker(f.company)
	foreign := f.seedWorker(uuid.New())
	otherAdmin := models.NewAdminProfile(uuid.New(), "Boss", "boss@other.io", uuid.New(), fixedT)
	f.profiles.put(otherAdmin)

	tests := []struct {
		name    string
		caller  uuid.UUID
		target  uuid.UUID
		wantErr error
	}{
		{"missing target", f.admin.UID, uuid.New(), accountdomain.ErrWorkerNotFound},
		{"target is an admin", f.admin.UID, otherAdmin.UID, accountdomain.ErrNotAWorker},
		{"worker of another company", f.admin.UID, foreign.UID, tenant.ErrForeignTenant},
		{"caller is a worker", mine.UID, foreign.UID, accountdomain.ErrNotAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.DeleteWorker(context.Background(), tt.caller, tt.target); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("foreign worker is untouched", func(t *testing.T) {
		p, err := f.profiles.Get(context.Background(), foreign.UID)
		if err != nil || !p.IsActive {
			t.Fatalf("foreign worker modified: %+v, %v", p, err)
		}
	})

	t.Run("own worker", func(t *testing.T) {
		if err := f.svc.DeleteWorker(context.Background(), f.admin.UID, mine.UID); err != nil {
			t.Fatalf("DeleteWorker: %v", err)
		}
		if _, err := f.profiles.Get(context.Background(), mine.UID); !errors.Is(err, accountdomain.ErrProfileNotFound) {
			t.Fatalf("profile still present: %v", err)
		}
		if _, ok := f.ids.byUID[mine.UID]; ok {
			t.Fatal("identity still present")
		}
	})
}

func TestDeleteWorker_StalledIsInternal(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorker(f.company)
	runner := &recordingRunner{
		result: provisioning.Result{State: models.ProvisioningIdentityDeleted},
		err:    errors.Join(errors.New("profiles unavailable"), saga.ErrStalled),
	}
	f.svc.runner = runner

	err := f.svc.DeleteWorker(context.Background(), f.admin.UID, w.UID)
	if !errors.Is(err, saga.ErrStalled) {
		t.Fatalf("expected ErrStalled, got %v", err)
	}
	if len(runner.removes) != 1 || runner.removes[0].CompanyID != f.company {
		t.Fatalf("unexpected removes %+v", runner.removes)
	}
}

func TestListWorkers(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(f.company)
	f.seedWorker(f.company)
	f.seedWorker(uuid.New())

	got, err := f.svc.ListWorkers(context.Background(), f.admin.UID)
	if err != nil {
		t.Fatalf("ListWorkers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(got))
	}
}

func TestSignupAdminAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.svc.SignupAdmin(ctx, SignupInput{Name: "Rui", Email: "Rui@Kiosk.pt", Password: "hunter22", CompanyName: " Kiosk "})
	if err != nil {
		t.Fatalf("SignupAdmin: %v", err)
	}
	if !admin.IsAdmin() || admin.CompanyID == uuid.Nil {
		t.Fatalf("unexpected admin %+v", admin)
	}
	if c := f.profiles.companies[admin.CompanyID]; c.Name != "Kiosk" || c.CreatedBy != admin.UID {
		t.Fatalf("unexpected company %+v", c)
	}

	caller, err := f.svc.ResolveCaller(ctx, admin.UID)
	if err != nil || caller.CompanyID != admin.CompanyID || caller.Role != tenant.RoleAdmin {
		t.Fatalf("ResolveCaller: %+v, %v", caller, err)
	}

	res, err := f.svc.Login(ctx, "rui@kiosk.pt", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.UID != admin.UID || res.Token == "" || !res.ExpiresAt.Equal(fixedT.Add(time.Hour)) {
		t.Fatalf("unexpected login %+v", res)
	}

	for _, tt := range []struct{ email, pass string }{
		{"rui@kiosk.pt", "wrong-password"},
		{"nobody@kiosk.pt", "hunter22"},
	} {
		if _, err := f.svc.Login(ctx, tt.email, tt.pass); !errors.Is(err, accountdomain.ErrInvalidCredentials) {
			t.Fatalf("Login(%s): expected ErrInvalidCredentials, got %v", tt.email, err)
		}
	}

	if _, err := f.svc.SignupAdmin(ctx, SignupInput{Name: "Rui", Email: "rui@kiosk.pt", Password: "hunter22", CompanyName: "Again"}); !errors.Is(err, accountdomain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupAdmin_CompanyFailureDeletesIdentity(t *testing.T) {
	f := newFixture(t)
	f.profiles.failCompany = errors.New("db down")
	before := f.ids.count()

	if _, err := f.svc.SignupAdmin(context.Background(), SignupInput{Name: "Rui", Email: "rui@kiosk.pt", Password: "hunter22", CompanyName: "Kiosk"}); err == nil {
		t.Fatal("expected error")
	}
	if f.ids.count() != before {
		t.Fatal("identity must be removed when the company cannot be written")
	}
}

func TestResolveCaller(t *testing.T) {
	f := newFixture(t)
	w := f.seedWorker(f.company)
	if err := f.profiles.SetActive(context.Background(), w.UID, f.company, false); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.ResolveCaller(context.Background(), uuid.New()); !errors.Is(err, auth.ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
	if _, err := f.svc.ResolveCaller(context.Background(), w.UID); !errors.Is(err, auth.ErrProfileInactive) {
		t.Fatalf("expected ErrProfileInactive, got %v", err)
	}
}
