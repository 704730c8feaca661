package messages

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
	Create(ctx context.Context, m Message) error
	GetByID(ctx context.Context, id string) (Message, error)
	ListByContact(ctx context.Context, contactID string, limit int) ([]Message, error)
}

// SMSSender sends a text and returns the provider message id.
// telephony.Client satisfies it.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// EmailSender delivers one email and returns the provider message id.
// email.Client satisfies it.
type EmailSender interface {
	Send(ctx context.Context, to, subject, text, html string) (string, error)
}

var (
	ErrNotFound = errors.New("messages: not found")
	ErrInvalid  = errors.New("messages: invalid message")
)

type Service struct {
	repo     Repository
	sms      SMSSender
	email    EmailSender
	contacts *contacts.Service
	activity *activity.Service

	clock func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, sms SMSSender, email EmailSender, cs *contacts.Service, act *activity.Service, log *slog.Logger) *Service {
	return &Service{repo: repo, sms: sms, email: email, contacts: cs, activity: act, clock: time.Now, log: log}
}

// SendSMS texts a contact. The message is persisted only after the provider
// accepts it; a provider rejection leaves no record behind.
func (s *Service) SendSMS(ctx context.Context, contactID, userID, body string) (Message, error) {
	if strings.TrimSpace(body) == "" {
		return Message{}, ErrInvalid
	}
	c, err := s.contacts.Get(ctx, contactID)
	if err != nil {
		return Message{}, err
	}
	if c.Phone == "" {
		return Message{}, fmt.Errorf("%w: contact has no phone number", ErrInvalid)
	}

	pid, err := s.sms.SendSMS(ctx, c.Phone, body)
	if err != nil {
		return Message{}, err
	}

	m := Message{
		ID:                uuid.NewString(),
		ProviderMessageID: pid,
		ContactID:         c.ID,
		UserID:            userID,
		Channel:           ChannelSMS,
		Direction:         DirectionOutbound,
		To:                c.Phone,
		Body:              body,
		CreatedAt:         s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Message{}, err
	}
	s.recordActivity(ctx, m, fmt.Sprintf("texted %s %s", c.FirstName, c.LastName))
	return m, nil
}

// SendEmail mails a contact through the email provider.
func (s *Service) SendEmail(ctx context.Context, contactID, userID, subject, body string) (Message, error) {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return Message{}, ErrInvalid
	}
	c, err := s.contacts.Get(ctx, contactID)
	if err != nil {
		return Message{}, err
	}
	if c.Email == "" {
		return Message{}, fmt.Errorf("%w: contact has no email address", ErrInvalid)
	}

	pid, err := s.email.Send(ctx, c.Email, subject, body, "")
	if err != nil {
		return Message{}, err
	}

	m := Message{
		ID:                uuid.NewString(),
		ProviderMessageID: pid,
		ContactID:         c.ID,
		UserID:            userID,
		Channel:           ChannelEmail,
		Direction:         DirectionOutbound,
		To:                c.Email,
		Subject:           subject,
		Body:              body,
		CreatedAt:         s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Message{}, err
	}
	s.recordActivity(ctx, m, fmt.Sprintf("emailed %s %s: %s", c.FirstName, c.LastName, subject))
	return m, nil
}

// RecordInboundSMS stores an incoming text, linked to a contact when the
// sender's number resolves to one. Unknown senders are kept too.
func (s *Service) RecordInboundSMS(ctx context.Context, providerMessageID, from, to, body string) error {
	if providerMessageID == "" {
		return ErrInvalid
	}

	var contactID string
	if c, err := s.contacts.ResolveByPhone(ctx, from); err == nil {
		contactID = c.ID
	} else if !errors.Is(err, contacts.ErrNotFound) {
		s.log.Warn("inbound sms contact lookup failed", "from", from, "err", err)
	}

	return s.repo.Create(ctx, Message{
		ID:                uuid.NewString(),
		ProviderMessageID: providerMessageID,
		ContactID:         contactID,
		Channel:           ChannelSMS,
		Direction:         DirectionInbound,
		From:              from,
		To:                to,
		Body:              body,
		CreatedAt:         s.clock().UTC(),
	})
}

// History lists a contact's messages, newest first.
func (s *Service) History(ctx context.Context, contactID string, limit int) ([]Message, error) {
	if contactID == "" {
		return nil, ErrInvalid
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByContact(ctx, contactID, limit)
}

func (s *Service) recordActivity(ctx context.Context, m Message, summary string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, activity.Entry{
		UserID:    m.UserID,
		Type:      activity.EntryTypeMessageSent,
		ContactID: m.ContactID,
		MessageID: m.ID,
		Summary:   summary,
	}); err != nil {
		s.log.Warn("message activity failed", "message_id", m.ID, "err", err)
	}
}
