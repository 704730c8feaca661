package reporting

import (
	"context"
	"database/sql"
	"time"

	"crm-platform/internal/calls"
	"crm-platform/internal/deals"
	"crm-platform/internal/messages"
)

// PostgresRepo reads across module tables for aggregation. Read-only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) ListCalls(ctx context.Context, from, to time.Time) ([]calls.Call, error) {
	const q = `
SELECT id, status, duration_seconds
FROM calls
WHERE created_at >= $1 AND created_at < $2
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calls.Call
	for rows.Next() {
		var c calls.Call
		if err := rows.Scan(&c.ID, &c.Status, &c.DurationSeconds); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListDeals(ctx context.Context) ([]deals.Deal, error) {
	const q = `SELECT id, stage, amount_minor FROM deals`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []deals.Deal
	for rows.Next() {
		var d deals.Deal
		if err := rows.Scan(&d.ID, &d.Stage, &d.AmountMinor); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListMessages(ctx context.Context, from, to time.Time) ([]messages.Message, error) {
	const q = `
SELECT id, direction, created_at
FROM messages
WHERE created_at >= $1 AND created_at < $2
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []messages.Message
	for rows.Next() {
		var m messages.Message
		if err := rows.Scan(&m.ID, &m.Direction, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
