package users

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, name, password_hash, role, company_id, active, created_at`

// GetByID fetches a user by primary key.
func (r *PGRepo) GetByID(ctx context.Context, id string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// GetByEmail fetches a user by unique email.
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var u User
	var companyID sql.NullString
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.Role,
		&companyID,
		&u.Active,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if companyID.Valid {
		u.CompanyID = companyID.String
	}
	return u, nil
}

var _ Repo = (*PGRepo)(nil)
