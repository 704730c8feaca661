package messages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"crm-platform/internal/activity"
	"crm-platform/internal/contacts"
)

type fakeSMS struct {
	sent []string
	fail error
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.sent = append(f.sent, to)
	return "SM123", nil
}

type fakeEmail struct {
	sent []string
	fail error
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.sent = append(f.sent, to)
	return "em_123", nil
}

type testEnv struct {
	svc     *Service
	repo    *MemoryRepo
	sms     *fakeSMS
	email   *fakeEmail
	actRepo *activity.MemoryRepo
	contact contacts.Contact
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cs := contacts.NewService(contacts.NewMemoryRepo())
	c, err := cs.Create(context.Background(), contacts.Contact{
		FirstName: "Dana", LastName: "Reyes",
		Phone: "+15550001111", Email: "dana@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	repo := NewMemoryRepo()
	sms := &fakeSMS{}
	em := &fakeEmail{}
	actRepo := activity.NewMemoryRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, sms, em, cs, activity.NewService(actRepo), log)
	return &testEnv{svc: svc, repo: repo, sms: sms, email: em, actRepo: actRepo, contact: c}
}

func TestSendSMS(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m, err := env.svc.SendSMS(ctx, env.contact.ID, "u1", "hi Dana")
	if err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if m.Channel != ChannelSMS || m.Direction != DirectionOutbound {
		t.Fatalf("unexpected message %+v", m)
	}
	if m.To != "+15550001111" || m.ProviderMessageID != "SM123" {
		t.Fatalf("unexpected message %+v", m)
	}
	if len(env.sms.sent) != 1 {
		t.Fatalf("provider called %d times", len(env.sms.sent))
	}

	hist, err := env.svc.History(ctx, env.contact.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 {
		t.Fatalf("history has %d messages", len(hist))
	}

	entries := env.actRepo.Entries()
	if len(entries) != 1 || entries[0].Type != activity.EntryTypeMessageSent {
		t.Fatalf("unexpected timeline %+v", entries)
	}
}

func TestSendSMSProviderFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv(t)
	env.sms.fail = errors.New("provider down")

	_, err := env.svc.SendSMS(context.Background(), env.contact.ID, "u1", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	hist, err := env.svc.History(context.Background(), env.contact.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 0 {
		t.Fatalf("history has %d messages, want 0", len(hist))
	}
}

func TestSendEmail(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.svc.SendEmail(context.Background(), env.contact.ID, "u1", "Proposal", "see attached")
	if err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if m.Channel != ChannelEmail || m.To != "dana@example.com" || m.Subject != "Proposal" {
		t.Fatalf("unexpected message %+v", m)
	}
	if len(env.email.sent) != 1 {
		t.Fatalf("provider called %d times", len(env.email.sent))
	}
}

func TestSendEmailRequiresSubject(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.SendEmail(context.Background(), env.contact.ID, "u1", "", "body")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestRecordInboundSMSLinksContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.svc.RecordInboundSMS(ctx, "SM999", "+15550001111", "+15559990000", "calling back")
	if err != nil {
		t.Fatalf("RecordInboundSMS: %v", err)
	}

	hist, err := env.svc.History(ctx, env.contact.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 {
		t.Fatalf("history has %d messages, want 1", len(hist))
	}
	if hist[0].Direction != DirectionInbound || hist[0].From != "+15550001111" {
		t.Fatalf("unexpected message %+v", hist[0])
	}
}

func TestRecordInboundSMSUnknownSenderKept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.svc.RecordInboundSMS(ctx, "SM998", "+15557775555", "+15559990000", "wrong number")
	if err != nil {
		t.Fatalf("RecordInboundSMS: %v", err)
	}

	m, err := env.repo.GetByID(ctx, firstMessageID(t, env.repo))
	if err != nil {
		t.Fatal(err)
	}
	if m.ContactID != "" {
		t.Fatalf("ContactID = %q, want empty", m.ContactID)
	}
}

func firstMessageID(t *testing.T, r *MemoryRepo) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.rows {
		return id
	}
	t.Fatal("repo is empty")
	return ""
}
