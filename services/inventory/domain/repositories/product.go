package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/services/inventory/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// Change is what a MutateFunc hands back to the repository: the event topic
// describing the mutation and, for sales, the sale record to append.
type Change struct {
	Topic   string
	Added   int64
	Sale    *models.Sale
	Deleted bool
}

// MutateFunc is called with the product as read under a row lock inside the
// mutating transaction. It applies the change to p in place. Returning an
// error aborts the transaction with no side effects.
type MutateFunc func(p *models.Product) (Change, error)

// ProductRepository is the persistence interface for the Product aggregate.
// The domain layer owns this interface; infrastructure implements it.
type ProductRepository interface {
	// Create inserts a new product and publishes product.created.
	Create(ctx context.Context, p *models.Product) error

	// GetByID returns a product scoped to companyID. A product owned by a
	// different company is reported as not found.
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error)

	// List returns the company's products newest first, plus the total count.
	List(ctx context.Context, companyID uuid.UUID, opts QueryOpts) ([]*models.Product, int, error)

	// Mutate reads the product by id alone, locks it, runs fn and persists
	// the result together with the sale and outbox event, all in one
	// transaction. The tenant check belongs in fn so it runs against the
	// freshly read row. A missing row yields ErrProductNotFound.
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*models.Product, error)

	// Delete is Mutate for removal: fn vets the locked row, then it is
	// deleted and product.deleted is published.
	Delete(ctx context.Context, id uuid.UUID, fn MutateFunc) (*models.Product, error)

	// ListSales returns the company's sales newest first.
	ListSales(ctx context.Context, companyID uuid.UUID, opts QueryOpts) ([]*models.Sale, error)
}
