package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/contacts"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, l Lead) error
	Update(ctx context.Context, l Lead) error
	GetByID(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, status LeadStatus, limit int) ([]Lead, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound         = errors.New("leads: not found")
	ErrInvalid          = errors.New("leads: invalid lead")
	ErrAlreadyConverted = errors.New("leads: lead already converted")
)

type Service struct {
	repo     Repository
	contacts *contacts.Service
	activity *activity.Service

	clock func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, cs *contacts.Service, act *activity.Service, log *slog.Logger) *Service {
	return &Service{repo: repo, contacts: cs, activity: act, clock: time.Now, log: log}
}

func (s *Service) Create(ctx context.Context, l Lead) (Lead, error) {
	if strings.TrimSpace(l.FirstName) == "" && strings.TrimSpace(l.LastName) == "" && strings.TrimSpace(l.Company) == "" {
		return Lead{}, ErrInvalid
	}
	if l.Status == "" {
		l.Status = StatusNew
	} else if !l.Status.Valid() {
		return Lead{}, ErrInvalid
	}
	now := s.clock().UTC()
	l.ID = uuid.NewString()
	l.ConvertedContactID = ""
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.repo.Create(ctx, l); err != nil {
		return Lead{}, err
	}
	return l, nil
}

func (s *Service) Update(ctx context.Context, l Lead) (Lead, error) {
	if l.ID == "" || !l.Status.Valid() {
		return Lead{}, ErrInvalid
	}
	cur, err := s.repo.GetByID(ctx, l.ID)
	if err != nil {
		return Lead{}, err
	}
	if cur.ConvertedContactID != "" {
		return Lead{}, ErrAlreadyConverted
	}
	l.ConvertedContactID = cur.ConvertedContactID
	l.CreatedAt = cur.CreatedAt
	l.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, l); err != nil {
		return Lead{}, err
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status LeadStatus, limit int) ([]Lead, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalid
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, status, limit)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalid
	}
	return s.repo.Delete(ctx, id)
}

// Convert promotes a lead into the contact book. The lead is marked
// qualified, linked to the new contact, and never converted twice.
func (s *Service) Convert(ctx context.Context, leadID, userID string) (contacts.Contact, error) {
	l, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		return contacts.Contact{}, err
	}
	if l.ConvertedContactID != "" {
		return contacts.Contact{}, ErrAlreadyConverted
	}

	c, err := s.contacts.Create(ctx, contacts.Contact{
		FirstName: l.FirstName,
		LastName:  l.LastName,
		Company:   l.Company,
		Email:     l.Email,
		Phone:     l.Phone,
		Notes:     l.Notes,
	})
	if err != nil {
		return contacts.Contact{}, fmt.Errorf("leads: create contact: %w", err)
	}

	l.Status = StatusQualified
	l.ConvertedContactID = c.ID
	l.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, l); err != nil {
		return contacts.Contact{}, err
	}

	if s.activity != nil {
		if err := s.activity.Record(ctx, activity.Entry{
			UserID:    userID,
			Type:      activity.EntryTypeLeadConverted,
			ContactID: c.ID,
			LeadID:    l.ID,
			Summary:   fmt.Sprintf("converted lead %s %s", l.FirstName, l.LastName),
		}); err != nil {
			s.log.Warn("lead conversion activity failed", "lead_id", l.ID, "err", err)
		}
	}
	return c, nil
}
