package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/services/account/application/provisioning"
	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	"github.com/blueledger/blueledger/services/account/domain/models"
)

type memIdentities struct {
	mu      sync.Mutex
	byUID   map[uuid.UUID]models.Identity
	creates int
}

func newMemIdentities() *memIdentities {
	return &memIdentities{byUID: map[uuid.UUID]models.Identity{}}
}

func (m *memIdentities) Create(_ context.Context, id *models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	for uid, existing := range m.byUID {
		if existing.Email == id.Email && uid != id.UID {
			return accountdomain.ErrEmailTaken
		}
	}
	m.byUID[id.UID] = *id
	return nil
}

func (m *memIdentities) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.byUID {
		if id.Email == email {
			return &id, nil
		}
	}
	return nil, accountdomain.ErrIdentityNotFound
}

func (m *memIdentities) Delete(_ context.Context, uid uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUID, uid)
	return nil
}

func (m *memIdentities) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byUID)
}

type memProfiles struct {
	mu          sync.Mutex
	byUID       map[uuid.UUID]models.Profile
	companies   map[uuid.UUID]models.Company
	failCompany error
	failCreate  error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byUID: map[uuid.UUID]models.Profile{}, companies: map[uuid.UUID]models.Company{}}
}

func (m *memProfiles) put(p *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUID[p.UID] = *p
}

func (m *memProfiles) Get(_ context.Context, uid uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUID[uid]
	if !ok {
		return nil, accountdomain.ErrProfileNotFound
	}
	return &p, nil
}

func (m *memProfiles) Create(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	if _, ok := m.byUID[p.UID]; !ok {
		m.byUID[p.UID] = *p
	}
	return nil
}

func (m *memProfiles) CreateWithCompany(_ context.Context, c *models.Company, admin *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCompany != nil {
		return m.failCompany
	}
	m.companies[c.ID] = *c
	m.byUID[admin.UID] = *admin
	return nil
}

func (m *memProfiles) SetActive(_ context.Context, uid, companyID uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUID[uid]
	if !ok || p.CompanyID != companyID {
		return accountdomain.ErrProfileNotFound
	}
	p.IsActive = active
	m.byUID[uid] = p
	return nil
}

func (m *memProfiles) Delete(_ context.Context, uid, companyID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byUID[uid]; ok && p.CompanyID == companyID {
		delete(m.byUID, uid)
	}
	return nil
}

func (m *memProfiles) ListWorkers(_ context.Context, companyID, admin uuid.UUID) ([]*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Profile
	for _, p := range m.byUID {
		if p.IsWorker() && p.CompanyID == companyID && p.CreatedBy == admin {
			out = append(out, &p)
		}
	}
	return out, nil
}

// recordingRunner records saga starts and returns a canned outcome.
type recordingRunner struct {
	provisions []provisioning.ProvisionInput
	removes    []provisioning.RemoveInput
	result     provisioning.Result
	err        error
}

func (r *recordingRunner) Provision(_ context.Context, in provisioning.ProvisionInput) (provisioning.Result, error) {
	r.provisions = append(r.provisions, in)
	return r.result, r.err
}

func (r *recordingRunner) Remove(_ context.Context, in provisioning.RemoveInput) (provisioning.Result, error) {
	r.removes = append(r.removes, in)
	return r.result, r.err
}
