package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crm-platform/internal/calls"
)

// DefaultPollInterval matches the 2-second cadence the call window uses.
const DefaultPollInterval = 2 * time.Second

// RecordReader is the single read the poller needs. calls.Repository
// satisfies it.
type RecordReader interface {
	GetByID(ctx context.Context, id string) (calls.Call, error)
}

// AttachPolling re-reads the call record on a fixed interval and forwards
// each observed status as a candidate. It runs concurrently with the
// realtime source at all times; the coordinator's merge rule is what makes
// the duplicate and out-of-order delivery safe.
//
// The poller stops itself the first time IT observes a terminal status,
// regardless of whether that observation wins the merge — even a losing
// observation means the record has resolved and further reads are waste.
// It also stops when the context is canceled, when the coordinator
// completes, or when the returned stop function runs.
//
// A single failed read is logged and skipped; the next tick tries again.
func AttachPolling(ctx context.Context, co *Coordinator, r RecordReader, callID string, interval time.Duration, log *slog.Logger) func() {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	stopped := make(chan struct{})

	go func() {
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				rec, err := r.GetByID(ctx, callID)
				if err != nil {
					log.Warn("call poll failed", "call_id", callID, "err", err)
					continue
				}
				co.Submit(Candidate{Status: rec.Status, Source: SourcePoll})
				if rec.Status.IsTerminal() {
					return
				}
			case <-co.Done():
				return
			case <-ctx.Done():
				return
			case <-stopped:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopped) })
	}
}
