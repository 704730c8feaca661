package activity

import (
	"context"
	"testing"
)

func TestService_RecordRequiresType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Record(context.Background(), Entry{UserID: "u1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_RecordFillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.Record(context.Background(), Entry{
		UserID:    "u1",
		Type:      EntryTypeCallPlaced,
		ContactID: "ct1",
		CallID:    "c1",
		Summary:   "called +15551234567",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry")
	}
	if entries[0].ID == "" || entries[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp filled")
	}
}

func TestService_TimelineFiltersByContact(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_ = svc.Record(ctx, Entry{UserID: "u1", Type: EntryTypeCallPlaced, ContactID: "ct1"})
	_ = svc.Record(ctx, Entry{UserID: "u1", Type: EntryTypeMessageSent, ContactID: "ct2"})

	got, err := svc.Timeline(ctx, "ct1", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].Type != EntryTypeCallPlaced {
		t.Fatalf("unexpected timeline: %+v", got)
	}
}
