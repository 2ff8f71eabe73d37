// source: identities.sql

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const insertIdentity = `-- name: InsertIdentity :execrows
INSERT INTO identities (uid, email, password_hash, display_name, disabled, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (uid) DO NOTHING
`

type InsertIdentityParams struct {
	Uid          uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Disabled     bool
	CreatedAt    time.Time
}

func (q *Queries) InsertIdentity(ctx context.Context, arg InsertIdentityParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertIdentity,
		arg.Uid,
		arg.Email,
		arg.PasswordHash,
		arg.DisplayName,
		arg.Disabled,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getIdentityByUID = `-- name: GetIdentityByUID :one
SELECT uid, email, password_hash, display_name, disabled, created_at
FROM identities
WHERE uid = $1
`

func (q *Queries) GetIdentityByUID(ctx context.Context, uid uuid.UUID) (Identity, error) {
	row := q.db.QueryRowContext(ctx, getIdentityByUID, uid)
	var i Identity
	err := row.Scan(&i.Uid, &i.Email, &i.PasswordHash, &i.DisplayName, &i.Disabled, &i.CreatedAt)
	return i, err
}

const getIdentityByEmail = `-- name: GetIdentityByEmail :one
SELECT uid, email, password_hash, display_name, disabled, created_at
FROM identities
WHERE lower(email) = lower($1)
`

func (q *Queries) GetIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	row := q.db.QueryRowContext(ctx, getIdentityByEmail, email)
	var i Identity
	err := row.Scan(&i.Uid, &i.Email, &i.PasswordHash, &i.DisplayName, &i.Disabled, &i.CreatedAt)
	return i, err
}

const deleteIdentity = `-- name: DeleteIdentity :exec
DELETE FROM identities WHERE uid = $1
`

func (q *Queries) DeleteIdentity(ctx context.Context, uid uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteIdentity, uid)
	return err
}
