package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests. It applies the same
// terminal-absorption rule as the Postgres implementation.
type MemoryRepo struct {
	mu    sync.Mutex
	rows  map[string]Call
	bySid map[string]string // provider_call_id -> id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]Call), bySid: make(map[string]string)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c
	if c.ProviderCallID != "" {
		r.bySid[c.ProviderCallID] = c.ID
	}
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) SetProviderCallID(ctx context.Context, id, providerCallID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	c.ProviderCallID = providerCallID
	c.UpdatedAt = time.Now().UTC()
	r.rows[id] = c
	r.bySid[providerCallID] = id
	return nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status CallStatus, durationSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(id, status, durationSeconds)
}

func (r *MemoryRepo) UpdateStatusByProviderCallID(ctx context.Context, providerCallID string, status CallStatus, durationSeconds int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySid[providerCallID]
	if !ok {
		return "", ErrNotFound
	}
	return id, r.applyLocked(id, status, durationSeconds)
}

func (r *MemoryRepo) applyLocked(id string, status CallStatus, durationSeconds int) error {
	c, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status.IsTerminal() {
		return ErrTerminal
	}
	c.Status = status
	c.DurationSeconds = durationSeconds
	c.UpdatedAt = time.Now().UTC()
	r.rows[id] = c
	return nil
}

func (r *MemoryRepo) ListByContact(ctx context.Context, contactID string, limit int) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.rows {
		if c.ContactID == contactID {
			out = append(out, c)
		}
	}
	return out, nil
}
