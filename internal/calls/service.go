package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"crm-platform/internal/activity"

	"github.com/google/uuid"
)

// Placer is the provider boundary the service dials through. The telephony
// package implements it against the provider's REST API.
type Placer interface {
	// PlaceCall asks the provider to originate a call and returns the
	// provider's call id once the request is accepted.
	PlaceCall(ctx context.Context, from, to string) (sid string, err error)

	// EndCall tells the provider to terminate an active call.
	EndCall(ctx context.Context, sid string) error
}

// ActiveCallLimiter caps concurrent softphone calls per user. One call row
// may be active per attempt; the limiter keeps a user from opening a second
// attempt while the first is unresolved.
type ActiveCallLimiter interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

var (
	ErrInvalidRequest = errors.New("calls: invalid request")
	ErrCallInFlight   = errors.New("calls: another call is already active")
)

// Service owns call attempts: creating the record, placing the provider
// call, applying webhook status updates, and hanging up. Every status write
// goes through the repository (terminal-absorbing) and is then published on
// the notifier so the realtime feed sees it.
type Service struct {
	repo     Repository
	notifier Notifier
	placer   Placer
	limiter  ActiveCallLimiter
	activity *activity.Service

	clock func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, notifier Notifier, placer Placer, limiter ActiveCallLimiter, act *activity.Service, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		placer:   placer,
		limiter:  limiter,
		activity: act,
		clock:    time.Now,
		log:      log,
	}
}

type CreateCallRequest struct {
	UserID    string
	ContactID string
	From      string
	To        string
	Notes     string
}

// CreateAndPlace creates the call record (status initiated) and asks the
// provider to originate the call. Configuration problems surface from the
// placer before any record write or network request; a provider rejection
// after the record exists marks the row failed so every consumer sees one
// consistent terminal outcome.
func (s *Service) CreateAndPlace(ctx context.Context, req CreateCallRequest) (Call, error) {
	if req.UserID == "" || req.To == "" {
		return Call{}, ErrInvalidRequest
	}

	if s.limiter != nil {
		ok, err := s.limiter.Acquire(ctx, req.UserID)
		if err != nil {
			return Call{}, err
		}
		if !ok {
			return Call{}, ErrCallInFlight
		}
	}

	now := s.clock().UTC()
	c := Call{
		ID:        uuid.NewString(),
		ContactID: req.ContactID,
		UserID:    req.UserID,
		From:      req.From,
		To:        req.To,
		Direction: DirectionOutbound,
		Status:    CallStatusInitiated,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.releaseSlot(ctx, req.UserID)
		return Call{}, err
	}

	sid, err := s.placer.PlaceCall(ctx, req.From, req.To)
	if err != nil {
		// Not retried; the failed outcome reaches the UI as a terminal
		// status plus the provider's message.
		if updErr := s.repo.UpdateStatus(ctx, c.ID, CallStatusFailed, 0); updErr != nil {
			s.log.Error("failed-call status write failed", "call_id", c.ID, "err", updErr)
		}
		s.notify(ctx, c.ID, CallStatusFailed)
		s.releaseSlot(ctx, req.UserID)
		return Call{}, fmt.Errorf("calls: place call: %w", err)
	}

	if err := s.repo.SetProviderCallID(ctx, c.ID, sid); err != nil {
		s.log.Error("provider call id write failed", "call_id", c.ID, "err", err)
	}
	c.ProviderCallID = sid

	s.recordActivity(ctx, activity.Entry{
		UserID:    req.UserID,
		Type:      activity.EntryTypeCallPlaced,
		ContactID: req.ContactID,
		CallID:    c.ID,
		Summary:   "called " + req.To,
	})
	return c, nil
}

// ApplyProviderStatus applies one webhook status callback. Updates landing
// on an already-terminal row are absorbed silently: first terminal writer
// wins at the storage layer, matching the coordinator's merge rule.
func (s *Service) ApplyProviderStatus(ctx context.Context, providerCallID string, status CallStatus, durationSeconds int) error {
	if providerCallID == "" || !status.Valid() {
		return ErrInvalidRequest
	}

	id, err := s.repo.UpdateStatusByProviderCallID(ctx, providerCallID, status, durationSeconds)
	if err != nil {
		if errors.Is(err, ErrTerminal) {
			s.log.Debug("status update absorbed by terminal row", "call_id", id, "status", status)
			return nil
		}
		return err
	}

	s.notify(ctx, id, status)

	if status.IsTerminal() {
		rec, err := s.repo.GetByID(ctx, id)
		if err == nil {
			s.releaseSlot(ctx, rec.UserID)
			s.recordActivity(ctx, activity.Entry{
				UserID:    rec.UserID,
				Type:      activity.EntryTypeCallFinished,
				ContactID: rec.ContactID,
				CallID:    rec.ID,
				Summary:   fmt.Sprintf("call %s after %ds", status, durationSeconds),
			})
		}
	}
	return nil
}

// Hangup asks the provider to end the call. The terminal status itself
// arrives through the webhook, not from here. A call that never reached the
// provider is canceled directly.
func (s *Service) Hangup(ctx context.Context, callID string) error {
	rec, err := s.repo.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if rec.Status.IsTerminal() {
		return nil
	}

	if rec.ProviderCallID == "" {
		if err := s.repo.UpdateStatus(ctx, callID, CallStatusCanceled, 0); err != nil && !errors.Is(err, ErrTerminal) {
			return err
		}
		s.notify(ctx, callID, CallStatusCanceled)
		s.releaseSlot(ctx, rec.UserID)
		return nil
	}
	return s.placer.EndCall(ctx, rec.ProviderCallID)
}

func (s *Service) Get(ctx context.Context, callID string) (Call, error) {
	return s.repo.GetByID(ctx, callID)
}

func (s *Service) ListByContact(ctx context.Context, contactID string, limit int) ([]Call, error) {
	return s.repo.ListByContact(ctx, contactID, limit)
}

func (s *Service) notify(ctx context.Context, callID string, status CallStatus) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, callID, status); err != nil {
		// Best-effort: the poller is the delivery fallback.
		s.log.Warn("status publish failed", "call_id", callID, "err", err)
	}
}

func (s *Service) releaseSlot(ctx context.Context, userID string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Release(ctx, userID); err != nil {
		s.log.Warn("call slot release failed", "user_id", userID, "err", err)
	}
}

func (s *Service) recordActivity(ctx context.Context, e activity.Entry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, e); err != nil {
		s.log.Warn("activity record failed", "err", err)
	}
}
