package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"crm-platform/internal/calls"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeviceSource_Translation(t *testing.T) {
	co := New("c1", calls.CallStatusInitiated, testOptions())
	defer co.Close()
	dev := NewDeviceSource(co)

	dev.Handle(DeviceEventRinging, "")
	dev.Handle(DeviceEventAccept, "")
	dev.Handle(DeviceEventDisconnect, "")

	got := statusChanges(drain(t, co, time.Second))
	want := []calls.CallStatus{
		calls.CallStatusInitiated,
		calls.CallStatusRinging,
		calls.CallStatusInProgress,
		calls.CallStatusCompleted,
	}
	assertStatusSeq(t, got, want)
}

func TestDeviceSource_ErrorCarriesMessage(t *testing.T) {
	co := New("c1", calls.CallStatusInitiated, testOptions())
	defer co.Close()
	dev := NewDeviceSource(co)

	dev.Handle(DeviceEventError, "ConnectionError: media setup failed")
	dev.Handle(DeviceEventDisconnect, "") // disconnect after error must not report completed

	snaps := drain(t, co, time.Second)
	final := snaps[len(snaps)-1]
	if final.Status != calls.CallStatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if final.Message == "" {
		t.Fatalf("expected error message on side channel")
	}
}

func TestDeviceSource_CancelBeforeAnswer(t *testing.T) {
	co := New("c1", calls.CallStatusInitiated, testOptions())
	defer co.Close()
	dev := NewDeviceSource(co)

	dev.Handle(DeviceEventRinging, "")
	dev.Handle(DeviceEventCancel, "")

	snaps := drain(t, co, time.Second)
	if snaps[len(snaps)-1].Status != calls.CallStatusCanceled {
		t.Fatalf("expected canceled, got %s", snaps[len(snaps)-1].Status)
	}
}

type countingReader struct {
	inner RecordReader
	reads atomic.Int64
	fail  atomic.Bool
}

func (r *countingReader) GetByID(ctx context.Context, id string) (calls.Call, error) {
	r.reads.Add(1)
	if r.fail.Load() {
		return calls.Call{}, errors.New("read failed")
	}
	return r.inner.GetByID(ctx, id)
}

func TestPolling_StopsAfterObservingTerminal(t *testing.T) {
	repo := calls.NewMemoryRepo()
	_ = repo.Create(context.Background(), calls.Call{ID: "c1", Status: calls.CallStatusCompleted})
	reader := &countingReader{inner: repo}

	co := New("c1", calls.CallStatusInitiated, testOptions())
	defer co.Close()
	stop := AttachPolling(context.Background(), co, reader, "c1", 3*time.Millisecond, discardLogger())
	defer stop()

	// Give the poller time to observe the terminal row and stop itself.
	time.Sleep(30 * time.Millisecond)
	after := reader.reads.Load()
	if after == 0 {
		t.Fatalf("poller never read")
	}
	time.Sleep(30 * time.Millisecond)
	if reader.reads.Load() != after {
		t.Fatalf("poller kept reading after observing terminal status")
	}
}

func TestPolling_SkipsFailedReadAndRetries(t *testing.T) {
	repo := calls.NewMemoryRepo()
	_ = repo.Create(context.Background(), calls.Call{ID: "c1", Status: calls.CallStatusRinging})
	reader := &countingReader{inner: repo}
	reader.fail.Store(true)

	co := New("c1", calls.CallStatusInitiated, testOptions())
	defer co.Close()
	stop := AttachPolling(context.Background(), co, reader, "c1", 3*time.Millisecond, discardLogger())
	defer stop()

	time.Sleep(15 * time.Millisecond)
	if reader.reads.Load() < 2 {
		t.Fatalf("expected poller to keep retrying through failures")
	}

	reader.fail.Store(false)
	time.Sleep(15 * time.Millisecond)

	co.Submit(Candidate{Status: calls.CallStatusCompleted, Source: SourceDevice})
	got := statusChanges(drain(t, co, time.Second))
	found := false
	for _, s := range got {
		if s == calls.CallStatusRinging {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected recovered poll to deliver ringing, got %v", got)
	}
}

func TestRealtime_ForwardsPublishedStatuses(t *testing.T) {
	notifier := calls.NewMemoryNotifier()
	co := New("c1", calls.CallStatusInitiated, testOptions())
	defer co.Close()

	release, err := AttachRealtime(context.Background(), co, notifier, "c1", discardLogger())
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer release()

	ctx := context.Background()
	_ = notifier.Publish(ctx, "c1", calls.CallStatusRinging)
	_ = notifier.Publish(ctx, "c1", calls.CallStatusInProgress)
	_ = notifier.Publish(ctx, "c1", calls.CallStatusCompleted)

	got := statusChanges(drain(t, co, time.Second))
	want := []calls.CallStatus{
		calls.CallStatusInitiated,
		calls.CallStatusRinging,
		calls.CallStatusInProgress,
		calls.CallStatusCompleted,
	}
	assertStatusSeq(t, got, want)
}

// TestScenario_AnsweredCallAcrossThreeSources walks the reference flow: the
// device reports ringing, a poll tick re-observes ringing from storage (a
// duplicate no-op), the realtime feed delivers the answer, the duration
// counter runs while connected, and the device reports the hangup.
func TestScenario_AnsweredCallAcrossThreeSources(t *testing.T) {
	ctx := context.Background()
	repo := calls.NewMemoryRepo()
	notifier := calls.NewMemoryNotifier()
	_ = repo.Create(ctx, calls.Call{ID: "c1", Status: calls.CallStatusInitiated})

	co := New("c1", calls.CallStatusInitiated, Options{
		TickInterval: 2 * time.Millisecond,
		GracePeriod:  5 * time.Millisecond,
	})
	dev := NewDeviceSource(co)
	release, err := AttachRealtime(ctx, co, notifier, "c1", discardLogger())
	if err != nil {
		t.Fatalf("attach realtime: %v", err)
	}
	defer release()
	stop := AttachPolling(ctx, co, repo, "c1", 3*time.Millisecond, discardLogger())
	defer stop()

	dev.Handle(DeviceEventRinging, "")
	_ = repo.UpdateStatus(ctx, "c1", calls.CallStatusRinging, 0)

	// Provider answered: storage row advances and the change feed delivers it.
	time.Sleep(8 * time.Millisecond)
	_ = repo.UpdateStatus(ctx, "c1", calls.CallStatusInProgress, 0)
	_ = notifier.Publish(ctx, "c1", calls.CallStatusInProgress)

	time.Sleep(15 * time.Millisecond)
	dev.Handle(DeviceEventDisconnect, "")
	_ = repo.UpdateStatus(ctx, "c1", calls.CallStatusCompleted, 5)

	snaps := drain(t, co, time.Second)
	got := statusChanges(snaps)
	want := []calls.CallStatus{
		calls.CallStatusInitiated,
		calls.CallStatusRinging,
		calls.CallStatusInProgress,
		calls.CallStatusCompleted,
	}
	assertStatusSeq(t, got, want)

	final := snaps[len(snaps)-1]
	if final.DurationSeconds == 0 {
		t.Fatalf("expected duration to have advanced while connected")
	}

	select {
	case <-co.Done():
	case <-time.After(time.Second):
		t.Fatalf("lifecycle never completed")
	}
}
