package companies

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const companyColumns = `id, cnpj, legal_name, trade_name, email, phone, active, created_at`

// GetByID fetches a company by primary key.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Company, error) {
	const query = `
SELECT ` + companyColumns + `
FROM companies
WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// GetByCNPJ fetches a company by its unique legal identifier.
func (r *PGRepo) GetByCNPJ(ctx context.Context, cnpj string) (Company, error) {
	const query = `
SELECT ` + companyColumns + `
FROM companies
WHERE cnpj = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, cnpj))
}

func (r *PGRepo) scanOne(row *sql.Row) (Company, error) {
	var c Company
	var tradeName, email, phone sql.NullString
	err := row.Scan(
		&c.ID,
		&c.CNPJ,
		&c.LegalName,
		&tradeName,
		&email,
		&phone,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	if tradeName.Valid {
		c.TradeName = tradeName.String
	}
	if email.Valid {
		c.Email = email.String
	}
	if phone.Valid {
		c.Phone = phone.String
	}
	return c, nil
}

var _ Repo = (*PGRepo)(nil)
