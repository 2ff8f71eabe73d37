package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	pkgcache "github.com/blueledger/blueledger/pkg/cache"
	"github.com/blueledger/blueledger/pkg/livequery"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/telemetry"
	"github.com/blueledger/blueledger/pkg/tenant"
	inventorydomain "github.com/blueledger/blueledger/services/inventory/domain"
	"github.com/blueledger/blueledger/services/inventory/domain/events"
	"github.com/blueledger/blueledger/services/inventory/domain/models"
	"github.com/blueledger/blueledger/services/inventory/domain/repositories"
	domainsvcs "github.com/blueledger/blueledger/services/inventory/domain/services"
)

// ProductsCollection is the livequery collection name for products.
const ProductsCollection = "products"

const (
	defaultListLimit = 50
	maxListLimit     = 500
	snapshotLimit    = 500
)

// ProductReadModel is the cache the service keeps in step with committed
// writes. *cache.ProductCache implements it.
type ProductReadModel interface {
	Get(ctx context.Context, companyID, productID uuid.UUID) (*pkgcache.CachedProduct, error)
	Set(ctx context.Context, p *pkgcache.CachedProduct) (bool, error)
	Tombstone(ctx context.Context, companyID, productID uuid.UUID, version int64) error
}

// ProductService runs the stock ledger and product administration for one
// tenant at a time. Every mutation goes through the repository's locked
// read-modify-write; after commit the read model is refreshed and the
// tenant's product channel is notified.
type ProductService struct {
	repo    repositories.ProductRepository
	cache   ProductReadModel
	notify  livequery.Publisher
	source  livequery.Source
	metrics *telemetry.LedgerMetrics
	log     logger.Logger
	now     func() time.Time
}

// ProductServiceOption customizes a ProductService.
type ProductServiceOption func(*ProductService)

// WithReadModel enables the write-through product cache.
func WithReadModel(c ProductReadModel) ProductServiceOption {
	return func(s *ProductService) { s.cache = c }
}

// WithLiveQuery sets the notification publisher and source used for
// snapshot subscriptions.
func WithLiveQuery(pub livequery.Publisher, src livequery.Source) ProductServiceOption {
	return func(s *ProductService) {
		s.notify = pub
		s.source = src
	}
}

// WithLedgerMetrics records ledger counters.
func WithLedgerMetrics(m *telemetry.LedgerMetrics) ProductServiceOption {
	return func(s *ProductService) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ProductServiceOption {
	return func(s *ProductService) { s.now = now }
}

// NewProductService returns a ProductService backed by repo.
func NewProductService(repo repositories.ProductRepository, log logger.Logger, opts ...ProductServiceOption) *ProductService {
	s := &ProductService{repo: repo, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateProductInput holds the fields an admin supplies for a new product.
type CreateProductInput struct {
	Name       string
	Category   string
	Price      decimal.Decimal
	InitialQty int64
}

// Create persists a new product owned by the caller's company.
func (s *ProductService) Create(ctx context.Context, caller tenant.Caller, in CreateProductInput) (*models.Product, error) {
	if caller.CompanyID == uuid.Nil {
		return nil, tenant.ErrNoCompany
	}
	name, err := models.NewProductName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", inventorydomain.ErrInvalidProduct, err)
	}
	p, err := models.NewProduct(caller.CompanyID, caller.UID, name, in.Category, in.Price, in.InitialQty, s.now())
	if err != nil {
		return nil, err
	}
	if err := domainsvcs.ValidateProductForCreation(p); err != nil {
		return nil, fmt.Errorf("%w: %w", inventorydomain.ErrInvalidProduct, err)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, p, false)
	return p, nil
}

// Restock adds amount units to a product of the caller's company.
func (s *ProductService) Restock(ctx context.Context, caller tenant.Caller, productID uuid.UUID, amount int64) (models.RestockResult, error) {
	if _, err := models.NormalizeRestockAmount(amount); err != nil {
		return models.RestockResult{}, err
	}

	var res models.RestockResult
	p, err := s.repo.Mutate(ctx, productID, func(p *models.Product) (repositories.Change, error) {
		if err := tenant.Check(caller, p.CompanyID); err != nil {
			return repositories.Change{}, err
		}
		r, err := p.Restock(amount, s.now())
		if err != nil {
			return repositories.Change{}, err
		}
		res = r
		return repositories.Change{Topic: events.TopicProductRestocked, Added: r.Added}, nil
	})
	if err != nil {
		s.log.InfoContext(ctx, "inventory: restock rejected", "product_id", productID, "amount", amount, "error", err)
		return models.RestockResult{}, err
	}

	s.metrics.Restocked(ctx, res.Added)
	s.afterCommit(ctx, p, false)
	return res, nil
}

// Sell removes units from a product of the caller's company. The stock bound
// is the quantity read under lock, never a value supplied by the client.
func (s *ProductService) Sell(ctx context.Context, caller tenant.Caller, productID uuid.UUID, units int64) (models.SellResult, error) {
	if units < 1 {
		s.metrics.SellRejected(ctx, "invalid_argument")
		return models.SellResult{}, fmt.Errorf("%w: units must be at least 1", inventorydomain.ErrInvalidArgument)
	}

	seller := models.Seller{UID: caller.UID, Name: caller.DisplayName(), Email: caller.Email}
	var res models.SellResult
	p, err := s.repo.Mutate(ctx, productID, func(p *models.Product) (repositories.Change, error) {
		if err := tenant.Check(caller, p.CompanyID); err != nil {
			return repositories.Change{}, err
		}
		r, sale, err := p.Sell(units, seller, s.now())
		if err != nil {
			return repositories.Change{}, err
		}
		res = r
		return repositories.Change{Topic: events.TopicProductSold, Sale: sale}, nil
	})
	if err != nil {
		s.metrics.SellRejected(ctx, rejectReason(err))
		s.log.InfoContext(ctx, "inventory: sale rejected", "product_id", productID, "units", units, "error", err)
		return models.SellResult{}, err
	}

	s.metrics.Sold(ctx, res.UnitsSold)
	s.afterCommit(ctx, p, false)
	return res, nil
}

// UpdateProductInput holds the descriptive fields an admin may change.
type UpdateProductInput struct {
	Name     string
	Category string
	Price    decimal.Decimal
}

// Update replaces name, category and price. Quantities are not editable here.
func (s *ProductService) Update(ctx context.Context, caller tenant.Caller, productID uuid.UUID, in UpdateProductInput) (*models.Product, error) {
	name, err := models.NewProductName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", inventorydomain.ErrInvalidProduct, err)
	}
	if err := domainsvcs.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", inventorydomain.ErrInvalidProduct, err)
	}

	p, err := s.repo.Mutate(ctx, productID, func(p *models.Product) (repositories.Change, error) {
		if err := tenant.Check(caller, p.CompanyID); err != nil {
			return repositories.Change{}, err
		}
		if err := p.UpdateDetails(name, in.Category, in.Price, s.now()); err != nil {
			return repositories.Change{}, err
		}
		return repositories.Change{Topic: events.TopicProductUpdated}, nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, p, false)
	return p, nil
}

// Delete removes a product after re-checking its owner inside the deleting
// transaction.
func (s *ProductService) Delete(ctx context.Context, caller tenant.Caller, productID uuid.UUID) error {
	p, err := s.repo.Delete(ctx, productID, func(p *models.Product) (repositories.Change, error) {
		if err := tenant.Check(caller, p.CompanyID); err != nil {
			return repositories.Change{}, err
		}
		return repositories.Change{Topic: events.TopicProductDeleted, Deleted: true}, nil
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, p, true)
	return nil
}

// Get returns one product of the caller's company, serving from the read
// model when it is warm.
func (s *ProductService) Get(ctx context.Context, caller tenant.Caller, productID uuid.UUID) (*models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, caller.CompanyID, productID)
		switch {
		case err == nil:
			return FromCached(cached), nil
		case errors.Is(err, pkgcache.ErrTombstoned):
			return nil, inventorydomain.ErrProductNotFound
		case !errors.Is(err, redis.Nil):
			s.log.WarnContext(ctx, "inventory: product cache read failed", "product_id", productID, "error", err)
		}
	}

	p, err := s.repo.GetByID(ctx, caller.CompanyID, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		warm := ToCached(p)
		go func() {
			if _, err := s.cache.Set(context.WithoutCancel(ctx), warm); err != nil {
				s.log.WarnContext(ctx, "inventory: product cache warm failed", "product_id", warm.ID, "error", err)
			}
		}()
	}
	return p, nil
}

// List returns a page of the caller's company products plus the total count.
func (s *ProductService) List(ctx context.Context, caller tenant.Caller, opts repositories.QueryOpts) ([]*models.Product, int, error) {
	products, total, err := s.repo.List(ctx, caller.CompanyID, normalizeOpts(opts))
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// ListSales returns the caller's company sales, newest first.
func (s *ProductService) ListSales(ctx context.Context, caller tenant.Caller, opts repositories.QueryOpts) ([]*models.Sale, error) {
	sales, err := s.repo.ListSales(ctx, caller.CompanyID, normalizeOpts(opts))
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// Summary aggregates the dashboard figures over all products of the company.
func (s *ProductService) Summary(ctx context.Context, caller tenant.Caller) (models.Summary, error) {
	products, err := s.listAll(ctx, caller.CompanyID)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(products), nil
}

// Subscribe streams snapshots of the company's products: the current list
// first, then a fresh list after every committed change.
func (s *ProductService) Subscribe(ctx context.Context, caller tenant.Caller) (<-chan livequery.Snapshot[*models.Product], error) {
	if s.source == nil {
		return nil, errors.New("inventory: live queries not configured")
	}
	companyID := caller.CompanyID
	return livequery.Subscribe(ctx, s.source, livequery.Channel(ProductsCollection, companyID),
		func(ctx context.Context) ([]*models.Product, error) {
			products, _, err := s.repo.List(ctx, companyID, repositories.QueryOpts{Limit: snapshotLimit})
			return products, err
		}, s.log)
}

func (s *ProductService) listAll(ctx context.Context, companyID uuid.UUID) ([]*models.Product, error) {
	var all []*models.Product
	for offset := 0; ; offset += maxListLimit {
		page, total, err := s.repo.List(ctx, companyID, repositories.QueryOpts{Limit: maxListLimit, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		all = append(all, page...)
		if len(page) < maxListLimit || len(all) >= total {
			return all, nil
		}
	}
}

// afterCommit refreshes the read model and wakes subscribers. Both are best
// effort: the row is already committed.
func (s *ProductService) afterCommit(ctx context.Context, p *models.Product, deleted bool) {
	ctx = context.WithoutCancel(ctx)
	if s.cache != nil {
		var err error
		if deleted {
			err = s.cache.Tombstone(ctx, p.CompanyID, p.ID, p.Version+1)
		} else {
			_, err = s.cache.Set(ctx, ToCached(p))
		}
		if err != nil {
			s.log.WarnContext(ctx, "inventory: product cache update failed", "product_id", p.ID, "error", err)
		}
	}
	if s.notify != nil {
		if err := s.notify.Notify(ctx, livequery.Channel(ProductsCollection, p.CompanyID)); err != nil {
			s.log.WarnContext(ctx, "inventory: notify failed", "product_id", p.ID, "error", err)
		}
	}
}

func normalizeOpts(opts repositories.QueryOpts) repositories.QueryOpts {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	opts.Limit = min(opts.Limit, maxListLimit)
	opts.Offset = max(opts.Offset, 0)
	return opts
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, inventorydomain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, tenant.ErrForeignTenant):
		return "foreign_tenant"
	case errors.Is(err, inventorydomain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, inventorydomain.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "error"
	}
}

// ToCached converts a product to its read model.
func ToCached(p *models.Product) *pkgcache.CachedProduct {
	return &pkgcache.CachedProduct{
		ID:             p.ID,
		CompanyID:      p.CompanyID,
		Name:           p.Name.String(),
		Category:       p.Category,
		Price:          p.Price,
		QtyUploaded:    p.QtyUploaded,
		QtyCurrent:     p.QtyCurrent,
		QtySold:        p.QtySold,
		Status:         string(p.Status),
		Version:        p.Version,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		LastSoldAt:     p.LastSoldAt,
		LastSoldByUID:  p.LastSoldByUID,
		LastSoldByName: p.LastSoldByName,
	}
}

// FromCached converts a read model back to a product.
func FromCached(c *pkgcache.CachedProduct) *models.Product {
	return &models.Product{
		ID:             c.ID,
		CompanyID:      c.CompanyID,
		Name:           models.ProductName(c.Name),
		Category:       c.Category,
		Price:          c.Price,
		QtyUploaded:    c.QtyUploaded,
		QtyCurrent:     c.QtyCurrent,
		QtySold:        c.QtySold,
		Status:         models.Status(c.Status),
		Version:        c.Version,
		CreatedBy:      c.CreatedBy,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		LastSoldAt:     c.LastSoldAt,
		LastSoldByUID:  c.LastSoldByUID,
		LastSoldByName: c.LastSoldByName,
	}
}
