package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c Contact) error
	Update(ctx context.Context, c Contact) error
	GetByID(ctx context.Context, id string) (Contact, error)
	GetByPhone(ctx context.Context, phone string) (Contact, error)
	List(ctx context.Context, search string, limit int) ([]Contact, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound = errors.New("contacts: not found")
	ErrInvalid  = errors.New("contacts: invalid contact")
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Create(ctx context.Context, c Contact) (Contact, error) {
	if err := validate(c); err != nil {
		return Contact{}, err
	}
	now := s.clock().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Create(ctx, c); err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, c Contact) (Contact, error) {
	if c.ID == "" {
		return Contact{}, ErrInvalid
	}
	if err := validate(c); err != nil {
		return Contact{}, err
	}
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Contact{}, err
	}
	return s.repo.GetByID(ctx, c.ID)
}

func (s *Service) Get(ctx context.Context, id string) (Contact, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveByPhone looks up the contact an inbound call or message belongs to.
func (s *Service) ResolveByPhone(ctx context.Context, phone string) (Contact, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Contact{}, ErrInvalid
	}
	return s.repo.GetByPhone(ctx, phone)
}

func (s *Service) List(ctx context.Context, search string, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, strings.TrimSpace(search), limit)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalid
	}
	return s.repo.Delete(ctx, id)
}

func validate(c Contact) error {
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		return ErrInvalid
	}
	if strings.TrimSpace(c.Phone) == "" && strings.TrimSpace(c.Email) == "" {
		return ErrInvalid
	}
	return nil
}
