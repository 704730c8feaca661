package deals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crm-platform/internal/activity"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d Deal) error
	Update(ctx context.Context, d Deal) error
	GetByID(ctx context.Context, id string) (Deal, error)
	ListByStage(ctx context.Context, stage string, limit int) ([]Deal, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound     = errors.New("deals: not found")
	ErrInvalid      = errors.New("deals: invalid deal")
	ErrUnknownStage = errors.New("deals: unknown pipeline stage")
)

type Service struct {
	repo     Repository
	pipeline Pipeline
	activity *activity.Service

	clock func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, pipeline Pipeline, act *activity.Service, log *slog.Logger) *Service {
	return &Service{repo: repo, pipeline: pipeline, activity: act, clock: time.Now, log: log}
}

func (s *Service) Pipeline() Pipeline { return s.pipeline }

func (s *Service) Create(ctx context.Context, d Deal) (Deal, error) {
	if strings.TrimSpace(d.Title) == "" || d.OwnerID == "" {
		return Deal{}, ErrInvalid
	}
	if d.Stage == "" {
		d.Stage = s.pipeline.FirstStage().Key
	} else if !s.pipeline.HasStage(d.Stage) {
		return Deal{}, ErrUnknownStage
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	now := s.clock().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := s.repo.Create(ctx, d); err != nil {
		return Deal{}, err
	}
	return d, nil
}

// MoveStage drags a deal to another board column.
func (s *Service) MoveStage(ctx context.Context, dealID, stage, userID string) (Deal, error) {
	if !s.pipeline.HasStage(stage) {
		return Deal{}, ErrUnknownStage
	}
	d, err := s.repo.GetByID(ctx, dealID)
	if err != nil {
		return Deal{}, err
	}
	if d.Stage == stage {
		return d, nil
	}

	from := d.Stage
	d.Stage = stage
	d.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return Deal{}, err
	}

	if s.activity != nil {
		if err := s.activity.Record(ctx, activity.Entry{
			UserID:    userID,
			Type:      activity.EntryTypeDealMoved,
			ContactID: d.ContactID,
			DealID:    d.ID,
			Summary:   fmt.Sprintf("moved %q from %s to %s", d.Title, from, stage),
		}); err != nil {
			s.log.Warn("deal move activity failed", "deal_id", d.ID, "err", err)
		}
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, d Deal) (Deal, error) {
	if d.ID == "" || strings.TrimSpace(d.Title) == "" {
		return Deal{}, ErrInvalid
	}
	if !s.pipeline.HasStage(d.Stage) {
		return Deal{}, ErrUnknownStage
	}
	d.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return Deal{}, err
	}
	return s.repo.GetByID(ctx, d.ID)
}

func (s *Service) Get(ctx context.Context, id string) (Deal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalid
	}
	return s.repo.Delete(ctx, id)
}

// Board builds the Kanban view: one column per pipeline stage, in order.
func (s *Service) Board(ctx context.Context, perStageLimit int) (Board, error) {
	if perStageLimit <= 0 {
		perStageLimit = 100
	}
	var b Board
	for _, stage := range s.pipeline.Stages {
		ds, err := s.repo.ListByStage(ctx, stage.Key, perStageLimit)
		if err != nil {
			return Board{}, err
		}
		b.Columns = append(b.Columns, BoardColumn{Stage: stage, Deals: ds})
	}
	return b, nil
}
