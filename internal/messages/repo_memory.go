package messages

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Message
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: make(map[string]Message)} }

func (r *MemoryRepo) Create(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[m.ID] = m
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) ListByContact(ctx context.Context, contactID string, limit int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.rows {
		if m.ContactID == contactID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
