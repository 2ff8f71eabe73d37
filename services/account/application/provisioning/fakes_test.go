package provisioning

import (
	"context"
	"sync"

	"github.com/google/uuid"

	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	"github.com/blueledger/blueledger/services/account/domain/models"
)

// flaky fails the next n calls with err.
type flaky struct {
	n   int
	err error
}

func (f *flaky) next() error {
	if f == nil || f.n == 0 {
		return nil
	}
	f.n--
	return f.err
}

type memIdentities struct {
	mu         sync.Mutex
	byUID      map[uuid.UUID]models.Identity
	failCreate *flaky
	failDelete *flaky
	deletes    int
}

func newMemIdentities() *memIdentities {
	return &memIdentities{byUID: map[uuid.UUID]models.Identity{}}
}

func (m *memIdentities) Create(_ context.Context, id *models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failCreate.next(); err != nil {
		return err
	}
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
	m.deletes++
	if err := m.failDelete.next(); err != nil {
		return err
	}
	delete(m.byUID, uid)
	return nil
}

func (m *memIdentities) has(uid uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byUID[uid]
	return ok
}

type memProfiles struct {
	mu         sync.Mutex
	byUID      map[uuid.UUID]models.Profile
	failCreate *flaky
	failDelete *flaky
	failSet    *flaky
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byUID: map[uuid.UUID]models.Profile{}}
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
	if err := m.failCreate.next(); err != nil {
		return err
	}
	if _, ok := m.byUID[p.UID]; !ok {
		m.byUID[p.UID] = *p
	}
	return nil
}

func (m *memProfiles) CreateWithCompany(_ context.Context, _ *models.Company, admin *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUID[admin.UID] = *admin
	return nil
}

func (m *memProfiles) SetActive(_ context.Context, uid, companyID uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSet.next(); err != nil {
		return err
	}
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
	if err := m.failDelete.next(); err != nil {
		return err
	}
	if p, ok := m.byUID[uid]; ok && p.CompanyID == companyID {
		delete(m.byUID, uid)
	}
	return nil
}

func (m *memProfiles) ListWorkers(context.Context, uuid.UUID, uuid.UUID) ([]*models.Profile, error) {
	return nil, nil
}

func (m *memProfiles) get(uid uuid.UUID) (models.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUID[uid]
	return p, ok
}
