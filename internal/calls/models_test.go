package calls

import (
	"context"
	"testing"
)

func TestRankOrdersForwardProgress(t *testing.T) {
	order := []CallStatus{
		CallStatusInitiated,
		CallStatusConnecting,
		CallStatusRinging,
		CallStatusInProgress,
	}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("%s must rank above %s", order[i], order[i-1])
		}
	}
	for _, term := range []CallStatus{
		CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled,
	} {
		if term.Rank() != 4 {
			t.Fatalf("terminal %s must rank 4, got %d", term, term.Rank())
		}
		if !term.IsTerminal() {
			t.Fatalf("%s must be terminal", term)
		}
	}
	if CallStatusUnknown.Rank() >= 0 {
		t.Fatalf("unknown must rank below every real status")
	}
}

func TestParseProviderStatusMapping(t *testing.T) {
	cases := map[string]CallStatus{
		"queued":      CallStatusInitiated,
		"initiated":   CallStatusInitiated,
		"ringing":     CallStatusRinging,
		"in-progress": CallStatusInProgress,
		"answered":    CallStatusInProgress,
		"completed":   CallStatusCompleted,
		"busy":        CallStatusBusy,
		"failed":      CallStatusFailed,
		"no-answer":   CallStatusNoAnswer,
		"canceled":    CallStatusCanceled,
		"garbage":     CallStatusUnknown,
		"":            CallStatusUnknown,
	}
	for raw, want := range cases {
		if got := ParseProviderStatus(raw); got != want {
			t.Fatalf("ParseProviderStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestMemoryRepoTerminalAbsorption(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	_ = repo.Create(ctx, Call{ID: "c1", ProviderCallID: "CA1", Status: CallStatusRinging})

	if _, err := repo.UpdateStatusByProviderCallID(ctx, "CA1", CallStatusFailed, 0); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := repo.UpdateStatusByProviderCallID(ctx, "CA1", CallStatusCompleted, 10); err != ErrTerminal {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}

	rec, _ := repo.GetByID(ctx, "c1")
	if rec.Status != CallStatusFailed {
		t.Fatalf("first terminal writer must win, got %s", rec.Status)
	}
}
