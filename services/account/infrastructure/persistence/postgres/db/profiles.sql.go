// source: profiles.sql

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const profileColumns = `uid, name, email, role, company_id, created_by, is_active, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var i Profile
	err := row.Scan(
		&i.Uid,
		&i.Name,
		&i.Email,
		&i.Role,
		&i.CompanyID,
		&i.CreatedBy,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const insertProfile = `-- name: InsertProfile :execrows
INSERT INTO profiles (uid, name, email, role, company_id, created_by, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (uid) DO NOTHING
`

type InsertProfileParams struct {
	Uid       uuid.UUID
	Name      string
	Email     string
	Role      string
	CompanyID uuid.NullUUID
	CreatedBy uuid.NullUUID
	IsActive  bool
	CreatedAt time.Time
}

func (q *Queries) InsertProfile(ctx context.Context, arg InsertProfileParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertProfile,
		arg.Uid,
		arg.Name,
		arg.Email,
		arg.Role,
		arg.CompanyID,
		arg.CreatedBy,
		arg.IsActive,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getProfile = `-- name: GetProfile :one
SELECT ` + profileColumns + `
FROM profiles
WHERE uid = $1
`

func (q *Queries) GetProfile(ctx context.Context, uid uuid.UUID) (Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx, getProfile, uid))
}

const setProfileActive = `-- name: SetProfileActive :execrows
UPDATE profiles SET is_active = $3
WHERE uid = $1 AND company_id = $2
`

type SetProfileActiveParams struct {
	Uid       uuid.UUID
	CompanyID uuid.UUID
	IsActive  bool
}

func (q *Queries) SetProfileActive(ctx context.Context, arg SetProfileActiveParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setProfileActive, arg.Uid, arg.CompanyID, arg.IsActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteProfile = `-- name: DeleteProfile :execrows
DELETE FROM profiles WHERE uid = $1 AND company_id = $2
`

type DeleteProfileParams struct {
	Uid       uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) DeleteProfile(ctx context.Context, arg DeleteProfileParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProfile, arg.Uid, arg.CompanyID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listWorkersByAdmin = `-- name: ListWorkersByAdmin :many
SELECT ` + profileColumns + `
FROM profiles
WHERE company_id = $1 AND created_by = $2 AND role = 'worker'
ORDER BY created_at DESC, uid
`

type ListWorkersByAdminParams struct {
	CompanyID uuid.UUID
	CreatedBy uuid.UUID
}

func (q *Queries) ListWorkersByAdmin(ctx context.Context, arg ListWorkersByAdminParams) ([]Profile, error) {
	rows, err := q.db.QueryContext(ctx, listWorkersByAdmin, arg.CompanyID, arg.CreatedBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Profile
	for rows.Next() {
		i, err := scanProfile(rows)
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
