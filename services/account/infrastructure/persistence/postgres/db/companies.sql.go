// source: companies.sql

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const insertCompany = `-- name: InsertCompany :exec
INSERT INTO companies (id, name, created_by, created_at)
VALUES ($1, $2, $3, $4)
`

type InsertCompanyParams struct {
	ID        uuid.UUID
	Name      string
	CreatedBy uuid.UUID
	CreatedAt time.Time
}

func (q *Queries) InsertCompany(ctx context.Context, arg InsertCompanyParams) error {
	_, err := q.db.ExecContext(ctx, insertCompany, arg.ID, arg.Name, arg.CreatedBy, arg.CreatedAt)
	return err
}
