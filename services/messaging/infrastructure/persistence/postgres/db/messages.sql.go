// source: messages.sql

package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const insertMessage = `-- name: InsertMessage :exec
INSERT INTO messages (id, company_id, from_uid, from_name, from_email, text, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertMessageParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	FromUid   uuid.UUID
	FromName  string
	FromEmail string
	Text      string
	CreatedAt time.Time
}

func (q *Queries) InsertMessage(ctx context.Context, arg InsertMessageParams) error {
	_, err := q.db.ExecContext(ctx, insertMessage,
		arg.ID,
		arg.CompanyID,
		arg.FromUid,
		arg.FromName,
		arg.FromEmail,
		arg.Text,
		arg.CreatedAt,
	)
	return err
}

const getMessage = `-- name: GetMessage :one
SELECT id, company_id, from_uid, from_name, from_email, text, created_at
FROM messages
WHERE id = $1
`

func (q *Queries) GetMessage(ctx context.Context, id uuid.UUID) (Message, error) {
	row := q.db.QueryRowContext(ctx, getMessage, id)
	var i Message
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.FromUid,
		&i.FromName,
		&i.FromEmail,
		&i.Text,
		&i.CreatedAt,
	)
	return i, err
}

const listMessagesByCompany = `-- name: ListMessagesByCompany :many
SELECT id, company_id, from_uid, from_name, from_email, text, created_at
FROM messages
WHERE company_id = $1
ORDER BY created_at DESC, id
LIMIT $2
`

type ListMessagesByCompanyParams struct {
	CompanyID uuid.UUID
	Limit     int32
}

func (q *Queries) ListMessagesByCompany(ctx context.Context, arg ListMessagesByCompanyParams) ([]Message, error) {
	rows, err := q.db.QueryContext(ctx, listMessagesByCompany, arg.CompanyID, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

const listMessagesBySender = `-- name: ListMessagesBySender :many
SELECT id, company_id, from_uid, from_name, from_email, text, created_at
FROM messages
WHERE company_id = $1 AND from_uid = $2
ORDER BY created_at DESC, id
LIMIT $3
`

type ListMessagesBySenderParams struct {
	CompanyID uuid.UUID
	FromUid   uuid.UUID
	Limit     int32
}

func (q *Queries) ListMessagesBySender(ctx context.Context, arg ListMessagesBySenderParams) ([]Message, error) {
	rows, err := q.db.QueryContext(ctx, listMessagesBySender, arg.CompanyID, arg.FromUid, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

const deleteMessage = `-- name: DeleteMessage :execrows
DELETE FROM messages
WHERE id = $1 AND company_id = $2
`

type DeleteMessageParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) DeleteMessage(ctx context.Context, arg DeleteMessageParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMessage, arg.ID, arg.CompanyID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()
	var items []Message
	for rows.Next() {
		var i Message
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.FromUid,
			&i.FromName,
			&i.FromEmail,
			&i.Text,
			&i.CreatedAt,
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
