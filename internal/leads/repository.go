package leads

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const leadColumns = `id, first_name, last_name, company, email, phone, source, status, owner_id, notes, converted_contact_id, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID,
		&l.FirstName,
		&l.LastName,
		&l.Company,
		&l.Email,
		&l.Phone,
		&l.Source,
		&l.Status,
		&l.OwnerID,
		&l.Notes,
		&l.ConvertedContactID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func (r *PostgresRepo) Create(ctx context.Context, l Lead) error {
	const q = `
INSERT INTO leads (` + leadColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.FirstName, l.LastName, l.Company, l.Email, l.Phone, l.Source,
		l.Status, l.OwnerID, l.Notes, l.ConvertedContactID, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, l Lead) error {
	const q = `
UPDATE leads
SET first_name = $2, last_name = $3, company = $4, email = $5, phone = $6,
    source = $7, status = $8, owner_id = $9, notes = $10,
    converted_contact_id = $11, updated_at = $12
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		l.ID, l.FirstName, l.LastName, l.Company, l.Email, l.Phone, l.Source,
		l.Status, l.OwnerID, l.Notes, l.ConvertedContactID, l.UpdatedAt,
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

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	l, err := scanLead(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (r *PostgresRepo) List(ctx context.Context, status LeadStatus, limit int) ([]Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if status != "" {
		q = `SELECT ` + leadColumns + ` FROM leads WHERE status = $2 ORDER BY created_at DESC LIMIT $1`
		args = append(args, status)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
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
