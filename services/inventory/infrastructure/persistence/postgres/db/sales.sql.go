// source: sales.sql

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const insertSale = `-- name: InsertSale :exec
INSERT INTO sales (id, company_id, product_id, product_name, unit_price, units_sold,
                   sold_by_uid, sold_by_name, sold_by_email, sold_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type InsertSaleParams struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	UnitsSold   int64
	SoldByUid   uuid.UUID
	SoldByName  string
	SoldByEmail string
	SoldAt      time.Time
}

func (q *Queries) InsertSale(ctx context.Context, arg InsertSaleParams) error {
	_, err := q.db.ExecContext(ctx, insertSale,
		arg.ID,
		arg.CompanyID,
		arg.ProductID,
		arg.ProductName,
		arg.UnitPrice,
		arg.UnitsSold,
		arg.SoldByUid,
		arg.SoldByName,
		arg.SoldByEmail,
		arg.SoldAt,
	)
	return err
}

const listSalesByCompany = `-- name: ListSalesByCompany :many
SELECT id, company_id, product_id, product_name, unit_price, units_sold, sold_by_uid, sold_by_name, sold_by_email, sold_at
FROM sales
WHERE company_id = $1
ORDER BY sold_at DESC, id
LIMIT $2 OFFSET $3
`

type ListSalesByCompanyParams struct {
	CompanyID uuid.UUID
	Limit     int32
	Offset    int32
}

func (q *Queries) ListSalesByCompany(ctx context.Context, arg ListSalesByCompanyParams) ([]Sale, error) {
	rows, err := q.db.QueryContext(ctx, listSalesByCompany, arg.CompanyID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Sale
	for rows.Next() {
		var i Sale
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.ProductID,
			&i.ProductName,
			&i.UnitPrice,
			&i.UnitsSold,
			&i.SoldByUid,
			&i.SoldByName,
			&i.SoldByEmail,
			&i.SoldAt,
		); err != nil {
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
