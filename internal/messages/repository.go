package messages

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const messageColumns = `id, provider_message_id, contact_id, user_id, channel, direction, from_addr, to_addr, subject, body, created_at`

func scanMessage(row interface{ Scan(...any) error }) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID,
		&m.ProviderMessageID,
		&m.ContactID,
		&m.UserID,
		&m.Channel,
		&m.Direction,
		&m.From,
		&m.To,
		&m.Subject,
		&m.Body,
		&m.CreatedAt,
	)
	return m, err
}

func (r *PostgresRepo) Create(ctx context.Context, m Message) error {
	const q = `
INSERT INTO messages (` + messageColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`
	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.ProviderMessageID, m.ContactID, m.UserID, m.Channel, m.Direction,
		m.From, m.To, m.Subject, m.Body, m.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Message, error) {
	const q = `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresRepo) ListByContact(ctx context.Context, contactID string, limit int) ([]Message, error) {
	const q = `
SELECT ` + messageColumns + `
FROM messages
WHERE contact_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, contactID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
