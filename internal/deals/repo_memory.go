package deals

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Deal
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: make(map[string]Deal)} }

func (r *MemoryRepo) Create(ctx context.Context, d Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[d.ID] = d
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, d Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[d.ID]; !ok {
		return ErrNotFound
	}
	r.rows[d.ID] = d
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return Deal{}, ErrNotFound
	}
	return d, nil
}

func (r *MemoryRepo) ListByStage(ctx context.Context, stage string, limit int) ([]Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Deal
	for _, d := range r.rows {
		if d.Stage == stage {
			out = append(out, d)
		}
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
