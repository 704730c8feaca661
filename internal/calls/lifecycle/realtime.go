package lifecycle

import (
	"context"
	"log/slog"

	"crm-platform/internal/calls"
)

// AttachRealtime subscribes to the change feed for one call record and
// forwards every observed status as a candidate. The subscription is scoped:
// it is released when the coordinator signals lifecycle complete, when the
// context is canceled, or when the returned release function runs, whichever
// comes first.
//
// If the subscription drops or stays silent it is NOT retried here; the
// polling source is the designated fallback.
func AttachRealtime(ctx context.Context, co *Coordinator, n calls.Notifier, callID string, log *slog.Logger) (func(), error) {
	ch, release, err := n.Subscribe(ctx, callID)
	if err != nil {
		return nil, err
	}

	go func() {
		defer release()
		for {
			select {
			case status, ok := <-ch:
				if !ok {
					log.Debug("realtime feed closed", "call_id", callID)
					return
				}
				co.Submit(Candidate{Status: status, Source: SourceRealtime})
			case <-co.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return release, nil
}
