package activity

import (
	"context"
	"database/sql"
)

// PostgresRepo persists timeline entries. The table is INSERT-only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO activity_entries (
  id, user_id, type, contact_id, deal_id, lead_id, call_id, message_id, summary, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.UserID,
		e.Type,
		e.ContactID,
		e.DealID,
		e.LeadID,
		e.CallID,
		e.MessageID,
		e.Summary,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListByContact(ctx context.Context, contactID string, limit int) ([]Entry, error) {
	const q = `
SELECT id, user_id, type, contact_id, deal_id, lead_id, call_id, message_id, summary, created_at
FROM activity_entries
WHERE contact_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, contactID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Type,
			&e.ContactID,
			&e.DealID,
			&e.LeadID,
			&e.CallID,
			&e.MessageID,
			&e.Summary,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
