package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the activity timeline.
// Append-only: no Update/Delete methods exist by design.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByContact(ctx context.Context, contactID string, limit int) ([]Entry, error)
}

var ErrInvalidEntry = errors.New("activity: invalid entry")

// Service records timeline entries. Callers treat it as best-effort: log
// the error, never fail the originating operation.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("activity: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEntry
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) Timeline(ctx context.Context, contactID string, limit int) ([]Entry, error) {
	if contactID == "" {
		return nil, ErrInvalidEntry
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByContact(ctx, contactID, limit)
}
