package deals

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"crm-platform/internal/activity"
)

func newTestDealService(t *testing.T) (*Service, *activity.MemoryRepo) {
	t.Helper()
	actRepo := activity.NewMemoryRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(NewMemoryRepo(), DefaultPipeline(), activity.NewService(actRepo), log)
	return svc, actRepo
}

func TestCreateDefaultsToFirstStage(t *testing.T) {
	svc, _ := newTestDealService(t)

	d, err := svc.Create(context.Background(), Deal{Title: "Acme renewal", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Stage != "new" {
		t.Fatalf("Stage = %q, want new", d.Stage)
	}
	if d.Currency != "USD" {
		t.Fatalf("Currency = %q, want USD", d.Currency)
	}
	if d.ID == "" || d.CreatedAt.IsZero() {
		t.Fatal("ID/CreatedAt not filled")
	}
}

func TestCreateRejectsUnknownStage(t *testing.T) {
	svc, _ := newTestDealService(t)
	_, err := svc.Create(context.Background(), Deal{Title: "x", OwnerID: "u1", Stage: "limbo"})
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("err = %v, want ErrUnknownStage", err)
	}
}

func TestMoveStageRecordsActivity(t *testing.T) {
	svc, actRepo := newTestDealService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, Deal{Title: "Acme renewal", OwnerID: "u1", ContactID: "c1"})
	if err != nil {
		t.Fatal(err)
	}

	moved, err := svc.MoveStage(ctx, d.ID, "qualified", "u1")
	if err != nil {
		t.Fatalf("MoveStage: %v", err)
	}
	if moved.Stage != "qualified" {
		t.Fatalf("Stage = %q", moved.Stage)
	}

	entries, err := actRepo.ListByContact(ctx, "c1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d timeline entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != activity.EntryTypeDealMoved || e.DealID != d.ID {
		t.Fatalf("unexpected entry %+v", e)
	}
	if !strings.Contains(e.Summary, "qualified") {
		t.Fatalf("Summary = %q", e.Summary)
	}
}

func TestMoveStageSameStageIsNoop(t *testing.T) {
	svc, actRepo := newTestDealService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, Deal{Title: "x", OwnerID: "u1", ContactID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MoveStage(ctx, d.ID, d.Stage, "u1"); err != nil {
		t.Fatal(err)
	}

	entries, err := actRepo.ListByContact(ctx, "c1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("no-op move recorded %d entries", len(entries))
	}
}

func TestMoveStageUnknownStage(t *testing.T) {
	svc, _ := newTestDealService(t)
	_, err := svc.MoveStage(context.Background(), "whatever", "limbo", "u1")
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("err = %v, want ErrUnknownStage", err)
	}
}

func TestBoardColumnsFollowPipelineOrder(t *testing.T) {
	svc, _ := newTestDealService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, Deal{Title: "a", OwnerID: "u1"}); err != nil {
		t.Fatal(err)
	}
	d, err := svc.Create(ctx, Deal{Title: "b", OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MoveStage(ctx, d.ID, "won", "u1"); err != nil {
		t.Fatal(err)
	}

	b, err := svc.Board(ctx, 0)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	stages := DefaultPipeline().Stages
	if len(b.Columns) != len(stages) {
		t.Fatalf("got %d columns, want %d", len(b.Columns), len(stages))
	}
	for i, col := range b.Columns {
		if col.Stage.Key != stages[i].Key {
			t.Fatalf("column %d = %q, want %q", i, col.Stage.Key, stages[i].Key)
		}
	}
	if n := len(b.Columns[0].Deals); n != 1 {
		t.Fatalf("new column has %d deals, want 1", n)
	}
	if n := len(b.Columns[4].Deals); n != 1 {
		t.Fatalf("won column has %d deals, want 1", n)
	}
}
