package leads

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Lead
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: make(map[string]Lead)} }

func (r *MemoryRepo) Create(ctx context.Context, l Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[l.ID] = l
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, l Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[l.ID]; !ok {
		return ErrNotFound
	}
	r.rows[l.ID] = l
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepo) List(ctx context.Context, status LeadStatus, limit int) ([]Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Lead
	for _, l := range r.rows {
		if status != "" && l.Status != status {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}
