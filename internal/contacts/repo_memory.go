package contacts

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Contact
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: make(map[string]Contact)} }

func (r *MemoryRepo) Create(ctx context.Context, c Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.ID]; !ok {
		return ErrNotFound
	}
	r.rows[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetByPhone(ctx context.Context, phone string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.Phone == phone {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, search string, limit int) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search = strings.ToLower(search)
	var out []Contact
	for _, c := range r.rows {
		if search == "" ||
			strings.Contains(strings.ToLower(c.FirstName), search) ||
			strings.Contains(strings.ToLower(c.LastName), search) ||
			strings.Contains(strings.ToLower(c.Company), search) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	if len(out) > limit {
		out = out[:limit]
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
