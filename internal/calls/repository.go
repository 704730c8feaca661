package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository is the persistence contract the lifecycle machinery depends on:
// create a record, point-read it by id, and point-update status/duration by
// id or by provider call id. Change notification is a separate concern
// (Notifier). Anything that satisfies this contract works; the production
// implementation is Postgres.
type Repository interface {
	Create(ctx context.Context, c Call) error
	GetByID(ctx context.Context, id string) (Call, error)
	SetProviderCallID(ctx context.Context, id, providerCallID string) error

	// UpdateStatus transitions the row keyed by internal id.
	// Terminal rows are absorbing: the update is a no-op once the stored
	// status is terminal, and ErrTerminal is returned.
	UpdateStatus(ctx context.Context, id string, status CallStatus, durationSeconds int) error

	// UpdateStatusByProviderCallID is the webhook path; same absorption rule.
	// Returns the internal id of the matched row so callers can notify on it.
	UpdateStatusByProviderCallID(ctx context.Context, providerCallID string, status CallStatus, durationSeconds int) (string, error)

	ListByContact(ctx context.Context, contactID string, limit int) ([]Call, error)
}

var (
	ErrNotFound = errors.New("calls: not found")

	// ErrTerminal is returned when an update targets a row that already
	// reached a terminal status. First terminal writer wins at the storage
	// layer; later writers observe this error and move on.
	ErrTerminal = errors.New("calls: call already terminal")
)

// PostgresRepo implements Repository over database/sql with the pgx driver.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Create(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (
  id, provider_call_id, contact_id, user_id, from_number, to_number,
  direction, status, duration, notes, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.ProviderCallID,
		c.ContactID,
		c.UserID,
		c.From,
		c.To,
		c.Direction,
		c.Status,
		c.DurationSeconds,
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Call, error) {
	const q = `
SELECT id, provider_call_id, contact_id, user_id, from_number, to_number,
       direction, status, duration, notes, created_at, updated_at
FROM calls
WHERE id = $1
`
	var c Call
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&c.ProviderCallID,
		&c.ContactID,
		&c.UserID,
		&c.From,
		&c.To,
		&c.Direction,
		&c.Status,
		&c.DurationSeconds,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) SetProviderCallID(ctx context.Context, id, providerCallID string) error {
	const q = `
UPDATE calls SET provider_call_id = $2, updated_at = $3
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, providerCallID, time.Now().UTC())
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

// terminalGuard keeps terminal rows absorbing at the storage layer, so the
// store and the in-memory coordinator agree on first-terminal-writer-wins.
const terminalGuard = `status NOT IN ('completed','failed','busy','no_answer','canceled')`

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status CallStatus, durationSeconds int) error {
	const q = `
UPDATE calls SET status = $2, duration = $3, updated_at = $4
WHERE id = $1 AND ` + terminalGuard
	res, err := r.db.ExecContext(ctx, q, id, status, durationSeconds, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing from absorbed.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrTerminal
	}
	return nil
}

func (r *PostgresRepo) UpdateStatusByProviderCallID(ctx context.Context, providerCallID string, status CallStatus, durationSeconds int) (string, error) {
	const q = `
UPDATE calls SET status = $2, duration = $3, updated_at = $4
WHERE provider_call_id = $1 AND ` + terminalGuard + `
RETURNING id
`
	var id string
	err := r.db.QueryRowContext(ctx, q, providerCallID, status, durationSeconds, time.Now().UTC()).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			id, lookErr := r.lookupByProviderCallID(ctx, providerCallID)
			if lookErr != nil {
				return "", lookErr
			}
			return id, ErrTerminal
		}
		return "", err
	}
	return id, nil
}

func (r *PostgresRepo) lookupByProviderCallID(ctx context.Context, providerCallID string) (string, error) {
	const q = `SELECT id FROM calls WHERE provider_call_id = $1`
	var id string
	if err := r.db.QueryRowContext(ctx, q, providerCallID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *PostgresRepo) ListByContact(ctx context.Context, contactID string, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, provider_call_id, contact_id, user_id, from_number, to_number,
       direction, status, duration, notes, created_at, updated_at
FROM calls
WHERE contact_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, contactID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(
			&c.ID,
			&c.ProviderCallID,
			&c.ContactID,
			&c.UserID,
			&c.From,
			&c.To,
			&c.Direction,
			&c.Status,
			&c.DurationSeconds,
			&c.Notes,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
