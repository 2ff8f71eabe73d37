package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/blueledger/blueledger/pkg/cache"
	inventorydomain "github.com/blueledger/blueledger/services/inventory/domain"
	"github.com/blueledger/blueledger/services/inventory/domain/models"
	"github.com/blueledger/blueledger/services/inventory/domain/repositories"
)

// memRepo serializes mutations per repository, which is stricter than the
// per-row lock of the postgres implementation and enough for these tests.
type memRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]models.Product
	sales    []*models.Sale
	topics   []string
}

func newMemRepo() *memRepo {
	return &memRepo{products: make(map[uuid.UUID]models.Product)}
}

func (r *memRepo) put(p *models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
}

func (r *memRepo) snapshot(id uuid.UUID) (models.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	return p, ok
}

func (r *memRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	r.topics = append(r.topics, "product.created")
	return nil
}

func (r *memRepo) GetByID(_ context.Context, companyID, id uuid.UUID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.CompanyID != companyID {
		return nil, inventorydomain.ErrProductNotFound
	}
	return &p, nil
}

func (r *memRepo) List(_ context.Context, companyID uuid.UUID, opts repositories.QueryOpts) ([]*models.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*models.Product
	for _, p := range r.products {
		if p.CompanyID == companyID {
			all = append(all, &p)
		}
	}
	slices.SortFunc(all, func(a, b *models.Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	total := len(all)
	start := min(opts.Offset, total)
	end := min(start+opts.Limit, total)
	return all[start:end], total, nil
}

func (r *memRepo) Mutate(_ context.Context, id uuid.UUID, fn repositories.MutateFunc) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[id]
	if !ok {
		return nil, inventorydomain.ErrProductNotFound
	}
	if err := stored.CheckInvariants(); err != nil {
		return nil, err
	}
	p := stored
	change, err := fn(&p)
	if err != nil {
		return nil, err
	}
	if err := p.CheckInvariants(); err != nil {
		return nil, err
	}
	r.products[id] = p
	if change.Sale != nil {
		r.sales = append(r.sales, change.Sale)
	}
	r.topics = append(r.topics, change.Topic)
	return &p, nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID, fn repositories.MutateFunc) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[id]
	if !ok {
		return nil, inventorydomain.ErrProductNotFound
	}
	p := stored
	change, err := fn(&p)
	if err != nil {
		return nil, err
	}
	delete(r.products, id)
	r.topics = append(r.topics, change.Topic)
	return &p, nil
}

func (r *memRepo) ListSales(_ context.Context, companyID uuid.UUID, opts repositories.QueryOpts) ([]*models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Sale
	for i := len(r.sales) - 1; i >= 0; i-- {
		if r.sales[i].CompanyID == companyID {
			out = append(out, r.sales[i])
		}
	}
	start := min(opts.Offset, len(out))
	end := min(start+opts.Limit, len(out))
	return out[start:end], nil
}

// memReadModel mimics the versioned cache: Set and Tombstone only win over
// older versions.
type memReadModel struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*pkgcache.CachedProduct
	dead    map[uuid.UUID]int64
	getErr  error
}

func newMemReadModel() *memReadModel {
	return &memReadModel{entries: map[uuid.UUID]*pkgcache.CachedProduct{}, dead: map[uuid.UUID]int64{}}
}

func (c *memReadModel) Get(_ context.Context, companyID, productID uuid.UUID) (*pkgcache.CachedProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if _, ok := c.dead[productID]; ok {
		return nil, pkgcache.ErrTombstoned
	}
	e, ok := c.entries[productID]
	if !ok || e.CompanyID != companyID {
		return nil, redis.Nil
	}
	cp := *e
	return &cp, nil
}

func (c *memReadModel) Set(_ context.Context, p *pkgcache.CachedProduct) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.dead[p.ID]; ok && v >= p.Version {
		return false, nil
	}
	if e, ok := c.entries[p.ID]; ok && e.Version >= p.Version {
		return false, nil
	}
	cp := *p
	c.entries[p.ID] = &cp
	return true, nil
}

func (c *memReadModel) Tombstone(_ context.Context, _, productID uuid.UUID, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
	c.dead[productID] = version
	return nil
}

func (c *memReadModel) entry(id uuid.UUID) (*pkgcache.CachedProduct, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

var errBoom = errors.New("boom")
