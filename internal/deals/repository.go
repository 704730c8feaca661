package deals

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const dealColumns = `id, title, contact_id, owner_id, stage, amount_minor, currency, notes, created_at, updated_at`

func scanDeal(row interface{ Scan(...any) error }) (Deal, error) {
	var d Deal
	err := row.Scan(
		&d.ID,
		&d.Title,
		&d.ContactID,
		&d.OwnerID,
		&d.Stage,
		&d.AmountMinor,
		&d.Currency,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func (r *PostgresRepo) Create(ctx context.Context, d Deal) error {
	const q = `
INSERT INTO deals (` + dealColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.Title, d.ContactID, d.OwnerID, d.Stage, d.AmountMinor, d.Currency, d.Notes, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, d Deal) error {
	const q = `
UPDATE deals
SET title = $2, contact_id = $3, owner_id = $4, stage = $5, amount_minor = $6, currency = $7, notes = $8, updated_at = $9
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		d.ID, d.Title, d.ContactID, d.OwnerID, d.Stage, d.AmountMinor, d.Currency, d.Notes, d.UpdatedAt,
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

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Deal, error) {
	const q = `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`
	d, err := scanDeal(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Deal{}, ErrNotFound
	}
	return d, err
}

func (r *PostgresRepo) ListByStage(ctx context.Context, stage string, limit int) ([]Deal, error) {
	const q = `
SELECT ` + dealColumns + `
FROM deals
WHERE stage = $1
ORDER BY updated_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, stage, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
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
