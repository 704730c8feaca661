package leads

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"crm-platform/internal/activity"
	"crm-platform/internal/contacts"
)

func newTestLeadService(t *testing.T) (*Service, *contacts.Service, *activity.MemoryRepo) {
	t.Helper()
	cs := contacts.NewService(contacts.NewMemoryRepo())
	actRepo := activity.NewMemoryRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(NewMemoryRepo(), cs, activity.NewService(actRepo), log)
	return svc, cs, actRepo
}

func TestCreateDefaultsToNew(t *testing.T) {
	svc, _, _ := newTestLeadService(t)

	l, err := svc.Create(context.Background(), Lead{FirstName: "Dana", Phone: "+15550001111", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Status != StatusNew {
		t.Fatalf("Status = %q, want new", l.Status)
	}
	if l.ID == "" {
		t.Fatal("ID not filled")
	}
}

func TestCreateRejectsNamelessLead(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	_, err := svc.Create(context.Background(), Lead{Phone: "+15550001111"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestConvertCreatesContactAndFreezesLead(t *testing.T) {
	svc, cs, actRepo := newTestLeadService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, Lead{FirstName: "Dana", LastName: "Reyes", Phone: "+15550001111", OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}

	c, err := svc.Convert(ctx, l.ID, "u1")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if c.FirstName != "Dana" || c.Phone != "+15550001111" {
		t.Fatalf("contact fields not carried over: %+v", c)
	}
	if _, err := cs.Get(ctx, c.ID); err != nil {
		t.Fatalf("contact not persisted: %v", err)
	}

	got, err := svc.Get(ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusQualified {
		t.Fatalf("Status = %q, want qualified", got.Status)
	}
	if got.ConvertedContactID != c.ID {
		t.Fatalf("ConvertedContactID = %q, want %q", got.ConvertedContactID, c.ID)
	}

	entries := actRepo.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d timeline entries, want 1", len(entries))
	}
	if entries[0].Type != activity.EntryTypeLeadConverted || entries[0].LeadID != l.ID {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestConvertTwiceFails(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, Lead{FirstName: "Dana", Phone: "+15550001111", OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Convert(ctx, l.ID, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Convert(ctx, l.ID, "u1"); !errors.Is(err, ErrAlreadyConverted) {
		t.Fatalf("err = %v, want ErrAlreadyConverted", err)
	}
}

func TestUpdateConvertedLeadFails(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, Lead{FirstName: "Dana", Phone: "+15550001111", OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Convert(ctx, l.ID, "u1"); err != nil {
		t.Fatal(err)
	}

	l.Status = StatusLost
	if _, err := svc.Update(ctx, l); !errors.Is(err, ErrAlreadyConverted) {
		t.Fatalf("err = %v, want ErrAlreadyConverted", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, Lead{FirstName: "a", Phone: "1", OwnerID: "u1"}); err != nil {
		t.Fatal(err)
	}
	l, err := svc.Create(ctx, Lead{FirstName: "b", Phone: "2", OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	l.Status = StatusContacted
	if _, err := svc.Update(ctx, l); err != nil {
		t.Fatal(err)
	}

	got, err := svc.List(ctx, StatusContacted, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FirstName != "b" {
		t.Fatalf("unexpected list %+v", got)
	}

	all, err := svc.List(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d leads, want 2", len(all))
	}
}
