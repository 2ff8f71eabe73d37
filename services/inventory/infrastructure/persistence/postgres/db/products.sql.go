// source: products.sql

package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const productColumns = `id, company_id, name, category, price, qty_uploaded, qty_current, qty_sold, status, version,
       created_by, created_at, updated_at, last_sold_at, last_sold_by_uid, last_sold_by_name`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.Name,
		&i.Category,
		&i.Price,
		&i.QtyUploaded,
		&i.QtyCurrent,
		&i.QtySold,
		&i.Status,
		&i.Version,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.LastSoldAt,
		&i.LastSoldByUid,
		&i.LastSoldByName,
	)
	return i, err
}

const insertProduct = `-- name: InsertProduct :exec
INSERT INTO products (id, company_id, name, category, price, qty_uploaded, qty_current, qty_sold, status, version,
                      created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

type InsertProductParams struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	Category    string
	Price       decimal.Decimal
	QtyUploaded int64
	QtyCurrent  int64
	QtySold     int64
	Status      string
	Version     int64
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) error {
	_, err := q.db.ExecContext(ctx, insertProduct,
		arg.ID,
		arg.CompanyID,
		arg.Name,
		arg.Category,
		arg.Price,
		arg.QtyUploaded,
		arg.QtyCurrent,
		arg.QtySold,
		arg.Status,
		arg.Version,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getProductByID = `-- name: GetProductByID :one
SELECT ` + productColumns + `
FROM products
WHERE id = $1 AND company_id = $2
`

type GetProductByIDParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) GetProductByID(ctx context.Context, arg GetProductByIDParams) (Product, error) {
	return scanProduct(q.db.QueryRowContext(ctx, getProductByID, arg.ID, arg.CompanyID))
}

const lockProduct = `-- name: LockProduct :one
SELECT ` + productColumns + `
FROM products
WHERE id = $1
FOR UPDATE
`

// LockProduct reads a product by id and holds its row lock until the
// surrounding transaction ends.
func (q *Queries) LockProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRowContext(ctx, lockProduct, id))
}

const listProductsByCompany = `-- name: ListProductsByCompany :many
SELECT ` + productColumns + `
FROM products
WHERE company_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3
`

type ListProductsByCompanyParams struct {
	CompanyID uuid.UUID
	Limit     int32
	Offset    int32
}

func (q *Queries) ListProductsByCompany(ctx context.Context, arg ListProductsByCompanyParams) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, listProductsByCompany, arg.CompanyID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		i, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countProductsByCompany = `-- name: CountProductsByCompany :one
SELECT count(*) FROM products WHERE company_id = $1
`

func (q *Queries) CountProductsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	row := q.db.QueryRowContext(ctx, countProductsByCompany, companyID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateProduct = `-- name: UpdateProduct :execrows
UPDATE products
SET name = $3,
    category = $4,
    price = $5,
    qty_uploaded = $6,
    qty_current = $7,
    qty_sold = $8,
    status = $9,
    version = $10,
    updated_at = $11,
    last_sold_at = $12,
    last_sold_by_uid = $13,
    last_sold_by_name = $14
WHERE id = $1 AND company_id = $2 AND version = $10 - 1
`

type UpdateProductParams struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	Name           string
	Category       string
	Price          decimal.Decimal
	QtyUploaded    int64
	QtyCurrent     int64
	QtySold        int64
	Status         string
	Version        int64
	UpdatedAt      time.Time
	LastSoldAt     sql.NullTime
	LastSoldByUid  uuid.NullUUID
	LastSoldByName string
}

// UpdateProduct writes a product whose Version is exactly one above the
// stored row. company_id is a predicate only; it is never assigned.
func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateProduct,
		arg.ID,
		arg.CompanyID,
		arg.Name,
		arg.Category,
		arg.Price,
		arg.QtyUploaded,
		arg.QtyCurrent,
		arg.QtySold,
		arg.Status,
		arg.Version,
		arg.UpdatedAt,
		arg.LastSoldAt,
		arg.LastSoldByUid,
		arg.LastSoldByName,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteProduct = `-- name: DeleteProduct :execrows
DELETE FROM products WHERE id = $1 AND company_id = $2
`

type DeleteProductParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) DeleteProduct(ctx context.Context, arg DeleteProductParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProduct, arg.ID, arg.CompanyID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
