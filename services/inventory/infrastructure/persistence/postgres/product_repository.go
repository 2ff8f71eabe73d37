package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/database"
	"github.com/blueledger/blueledger/pkg/events"
	inventorydomain "github.com/blueledger/blueledger/services/inventory/domain"
	domainevents "github.com/blueledger/blueledger/services/inventory/domain/events"
	"github.com/blueledger/blueledger/services/inventory/domain/models"
	"github.com/blueledger/blueledger/services/inventory/domain/repositories"
	"github.com/blueledger/blueledger/services/inventory/infrastructure/persistence/postgres/db"
)

// ProductRepository implements repositories.ProductRepository against PostgreSQL.
type ProductRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewProductRepository returns a ProductRepository backed by the given pool.
// bus may be nil, in which case no events are written to the outbox.
func NewProductRepository(database *database.Database, bus *events.EventBus) *ProductRepository {
	return &ProductRepository{db: database, bus: bus}
}

// Create inserts p and publishes product.created in the same transaction.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if err := p.CheckInvariants(); err != nil {
		return err
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		if err := q.InsertProduct(ctx, db.InsertProductParams{
			ID:          p.ID,
			CompanyID:   p.CompanyID,
			Name:        p.Name.String(),
			Category:    p.Category,
			Price:       p.Price,
			QtyUploaded: p.QtyUploaded,
			QtyCurrent:  p.QtyCurrent,
			QtySold:     p.QtySold,
			Status:      string(p.Status),
			Version:     p.Version,
			CreatedBy:   p.CreatedBy,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return r.publish(ctx, tx, domainevents.TopicProductCreated, p, repositories.Change{})
	})
}

// GetByID retrieves a product scoped to companyID.
func (r *ProductRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error) {
	row, err := db.New(r.db.DB()).GetProductByID(ctx, db.GetProductByIDParams{ID: id, CompanyID: companyID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inventorydomain.ErrProductNotFound
		}
		return nil, fmt.Errorf("query product: %w", err)
	}
	return rowToProduct(row)
}

// List retrieves a page of products and the total count for companyID.
func (r *ProductRepository) List(ctx context.Context, companyID uuid.UUID, opts repositories.QueryOpts) ([]*models.Product, int, error) {
	q := db.New(r.db.DB())

	rows, err := q.ListProductsByCompany(ctx, db.ListProductsByCompanyParams{
		CompanyID: companyID,
		Limit:     int32(opts.Limit),
		Offset:    int32(opts.Offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}

	total, err := q.CountProductsByCompany(ctx, companyID)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	products := make([]*models.Product, 0, len(rows))
	for _, row := range rows {
		p, err := rowToProduct(row)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, int(total), nil
}

// Mutate locks the row with SELECT ... FOR UPDATE, validates it, lets fn
// apply the change and writes the row, the sale and the outbox event before
// committing. Concurrent mutations of the same product queue on the lock, so
// fn always sees the latest committed quantities.
func (r *ProductRepository) Mutate(ctx context.Context, id uuid.UUID, fn repositories.MutateFunc) (*models.Product, error) {
	var out *models.Product
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		p, err := r.lock(ctx, q, id)
		if err != nil {
			return err
		}
		prevVersion := p.Version

		change, err := fn(p)
		if err != nil {
			return err
		}
		if err := p.CheckInvariants(); err != nil {
			return err
		}
		if p.Version != prevVersion+1 {
			return fmt.Errorf("%w: version moved from %d to %d", inventorydomain.ErrInvariantViolation, prevVersion, p.Version)
		}

		n, err := q.UpdateProduct(ctx, productToUpdateParams(p))
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if n != 1 {
			return fmt.Errorf("update product: %d rows affected", n)
		}

		if s := change.Sale; s != nil {
			if err := q.InsertSale(ctx, db.InsertSaleParams{
				ID:          s.ID,
				CompanyID:   s.CompanyID,
				ProductID:   s.ProductID,
				ProductName: s.ProductName,
				UnitPrice:   s.UnitPrice,
				UnitsSold:   s.UnitsSold,
				SoldByUid:   s.SoldByUID,
				SoldByName:  s.SoldByName,
				SoldByEmail: s.SoldByEmail,
				SoldAt:      s.SoldAt,
			}); err != nil {
				return fmt.Errorf("insert sale: %w", err)
			}
		}

		if err := r.publish(ctx, tx, change.Topic, p, change); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete locks the row, lets fn vet it and removes it.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID, fn repositories.MutateFunc) (*models.Product, error) {
	var out *models.Product
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		p, err := r.lock(ctx, q, id)
		if err != nil {
			return err
		}
		change, err := fn(p)
		if err != nil {
			return err
		}

		n, err := q.DeleteProduct(ctx, db.DeleteProductParams{ID: p.ID, CompanyID: p.CompanyID})
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if n != 1 {
			return inventorydomain.ErrProductNotFound
		}

		change.Deleted = true
		if err := r.publish(ctx, tx, domainevents.TopicProductDeleted, p, change); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListSales retrieves a page of sales for companyID.
func (r *ProductRepository) ListSales(ctx context.Context, companyID uuid.UUID, opts repositories.QueryOpts) ([]*models.Sale, error) {
	rows, err := db.New(r.db.DB()).ListSalesByCompany(ctx, db.ListSalesByCompanyParams{
		CompanyID: companyID,
		Limit:     int32(opts.Limit),
		Offset:    int32(opts.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	sales := make([]*models.Sale, len(rows))
	for i, row := range rows {
		sales[i] = &models.Sale{
			ID:          row.ID,
			CompanyID:   row.CompanyID,
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			UnitPrice:   row.UnitPrice,
			UnitsSold:   row.UnitsSold,
			SoldByUID:   row.SoldByUid,
			SoldByName:  row.SoldByName,
			SoldByEmail: row.SoldByEmail,
			SoldAt:      row.SoldAt,
		}
	}
	return sales, nil
}

func (r *ProductRepository) lock(ctx context.Context, q *db.Queries, id uuid.UUID) (*models.Product, error) {
	row, err := q.LockProduct(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inventorydomain.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return rowToProduct(row)
}

func (r *ProductRepository) publish(ctx context.Context, tx *sql.Tx, topic string, p *models.Product, change repositories.Change) error {
	if r.bus == nil || topic == "" {
		return nil
	}
	env := events.Envelope{Topic: topic, EventID: uuid.New(), Version: 1, CompanyID: p.CompanyID}
	now := p.UpdatedAt

	switch {
	case change.Sale != nil:
		s := change.Sale
		env.Payload = domainevents.ProductSoldEvent{
			EventID:     env.EventID,
			Version:     env.Version,
			SaleID:      s.ID,
			ProductID:   p.ID,
			CompanyID:   p.CompanyID,
			ProductName: s.ProductName,
			UnitPrice:   s.UnitPrice,
			UnitsSold:   s.UnitsSold,
			QtyCurrent:  p.QtyCurrent,
			SoldByUID:   s.SoldByUID,
			SoldByName:  s.SoldByName,
			RowVersion:  p.Version,
			OccurredAt:  s.SoldAt,
		}
	case change.Deleted:
		env.Payload = domainevents.ProductDeletedEvent{
			EventID:    env.EventID,
			Version:    env.Version,
			ProductID:  p.ID,
			CompanyID:  p.CompanyID,
			RowVersion: p.Version + 1,
			OccurredAt: time.Now().UTC(),
		}
	default:
		env.Payload = domainevents.ProductChangedEvent{
			EventID:     env.EventID,
			Version:     env.Version,
			ProductID:   p.ID,
			CompanyID:   p.CompanyID,
			Name:        p.Name.String(),
			Category:    p.Category,
			Price:       p.Price,
			QtyUploaded: p.QtyUploaded,
			QtyCurrent:  p.QtyCurrent,
			QtySold:     p.QtySold,
			Status:      string(p.Status),
			RowVersion:  p.Version,
			Added:       change.Added,
			OccurredAt:  now,
		}
	}

	if err := r.bus.PublishTx(ctx, tx, env); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// rowToProduct maps a db.Product to a domain product and rejects rows that
// break the ledger invariants.
func rowToProduct(row db.Product) (*models.Product, error) {
	p := &models.Product{
		ID:             row.ID,
		CompanyID:      row.CompanyID,
		Name:           models.ProductName(row.Name),
		Category:       row.Category,
		Price:          row.Price,
		QtyUploaded:    row.QtyUploaded,
		QtyCurrent:     row.QtyCurrent,
		QtySold:        row.QtySold,
		Status:         models.Status(row.Status),
		Version:        row.Version,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		LastSoldByName: row.LastSoldByName,
	}
	if row.LastSoldAt.Valid {
		t := row.LastSoldAt.Time
		p.LastSoldAt = &t
	}
	if row.LastSoldByUid.Valid {
		uid := row.LastSoldByUid.UUID
		p.LastSoldByUID = &uid
	}
	if err := p.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("product %s: %w", row.ID, err)
	}
	return p, nil
}

func productToUpdateParams(p *models.Product) db.UpdateProductParams {
	params := db.UpdateProductParams{
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
		UpdatedAt:      p.UpdatedAt,
		LastSoldByName: p.LastSoldByName,
	}
	if p.LastSoldAt != nil {
		params.LastSoldAt = sql.NullTime{Time: *p.LastSoldAt, Valid: true}
	}
	if p.LastSoldByUID != nil {
		params.LastSoldByUid = uuid.NullUUID{UUID: *p.LastSoldByUID, Valid: true}
	}
	return params
}
