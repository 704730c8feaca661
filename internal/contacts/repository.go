package contacts

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const contactColumns = `id, first_name, last_name, company, email, phone, notes, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Company,
		&c.Email,
		&c.Phone,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *PostgresRepo) Create(ctx context.Context, c Contact) error {
	const q = `
INSERT INTO contacts (` + contactColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.FirstName, c.LastName, c.Company, c.Email, c.Phone, c.Notes, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, c Contact) error {
	const q = `
UPDATE contacts
SET first_name = $2, last_name = $3, company = $4, email = $5, phone = $6, notes = $7, updated_at = $8
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		c.ID, c.FirstName, c.LastName, c.Company, c.Email, c.Phone, c.Notes, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Contact, error) {
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) GetByPhone(ctx context.Context, phone string) (Contact, error) {
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE phone = $1 LIMIT 1`
	c, err := scanContact(r.db.QueryRowContext(ctx, q, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) List(ctx context.Context, search string, limit int) ([]Contact, error) {
	const q = `
SELECT ` + contactColumns + `
FROM contacts
WHERE $1 = '' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR company ILIKE '%' || $1 || '%'
ORDER BY last_name, first_name
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, search, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
