package reporting

import (
	"context"
	"time"

	"crm-platform/internal/calls"
	"crm-platform/internal/deals"
	"crm-platform/internal/messages"
)

// MemoryRepo is a canned-data Repository for tests.
type MemoryRepo struct {
	Calls    []calls.Call
	Deals    []deals.Deal
	Messages []messages.Message
}

func (r *MemoryRepo) ListCalls(ctx context.Context, from, to time.Time) ([]calls.Call, error) {
	var out []calls.Call
	for _, c := range r.Calls {
		if !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListDeals(ctx context.Context) ([]deals.Deal, error) {
	return r.Deals, nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, from, to time.Time) ([]messages.Message, error) {
	var out []messages.Message
	for _, m := range r.Messages {
		if !m.CreatedAt.Before(from) && m.CreatedAt.Before(to) {
			out = append(out, m)
		}
	}
	return out, nil
}
