package reporting

import (
	"context"
	"errors"
	"time"

	"crm-platform/internal/calls"
	"crm-platform/internal/deals"
	"crm-platform/internal/messages"
)

var ErrInvalidRange = errors.New("reporting: invalid time range")

// Repository reads the rows the dashboard aggregates. Implementations query
// the owning modules' tables directly; reporting never writes.
type Repository interface {
	ListCalls(ctx context.Context, from, to time.Time) ([]calls.Call, error)
	ListDeals(ctx context.Context) ([]deals.Deal, error)
	ListMessages(ctx context.Context, from, to time.Time) ([]messages.Message, error)
}

type Service struct {
	repo     Repository
	pipeline deals.Pipeline
}

func NewService(repo Repository, pipeline deals.Pipeline) *Service {
	return &Service{repo: repo, pipeline: pipeline}
}

func (s *Service) Dashboard(ctx context.Context, rng TimeRange) (Dashboard, error) {
	if rng.From.IsZero() || rng.To.IsZero() || !rng.To.After(rng.From) {
		return Dashboard{}, ErrInvalidRange
	}

	out := Dashboard{Range: rng}

	callRows, err := s.repo.ListCalls(ctx, rng.From, rng.To)
	if err != nil {
		return Dashboard{}, err
	}
	out.Calls = summarizeCalls(callRows)

	dealRows, err := s.repo.ListDeals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	out.Pipeline = summarizePipeline(s.pipeline, dealRows)

	msgRows, err := s.repo.ListMessages(ctx, rng.From, rng.To)
	if err != nil {
		return Dashboard{}, err
	}
	out.Messages = summarizeMessages(rng, msgRows)

	return out, nil
}

func summarizeCalls(rows []calls.Call) CallsSummary {
	var out CallsSummary
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusNoAnswer:
			out.NoAnswerCalls++
		case calls.CallStatusBusy:
			out.BusyCalls++
		case calls.CallStatusCanceled:
			out.CanceledCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out
}

func summarizePipeline(p deals.Pipeline, rows []deals.Deal) PipelineSummary {
	var out PipelineSummary
	out.Stages = make([]StageSummary, len(p.Stages))
	byStage := make(map[string]*StageSummary, len(p.Stages))
	closed := make(map[string]bool, len(p.Stages))
	for i, st := range p.Stages {
		out.Stages[i] = StageSummary{Key: st.Key, Label: st.Label}
		byStage[st.Key] = &out.Stages[i]
		closed[st.Key] = st.Closed
	}

	for _, d := range rows {
		if st, ok := byStage[d.Stage]; ok {
			st.Deals++
			st.AmountMinor += d.AmountMinor
		}
		if closed[d.Stage] {
			if d.Stage == "won" {
				out.WonDeals++
				out.WonAmountMinor += d.AmountMinor
			}
			continue
		}
		out.OpenDeals++
		out.OpenAmountMinor += d.AmountMinor
	}
	return out
}

func summarizeMessages(rng TimeRange, rows []messages.Message) MessagesSummary {
	var out MessagesSummary
	counts := make(map[string]int)
	for _, m := range rows {
		switch m.Direction {
		case messages.DirectionOutbound:
			out.TotalSent++
		case messages.DirectionInbound:
			out.TotalReceived++
		}
		counts[m.CreatedAt.UTC().Format("2006-01-02")]++
	}

	for day := rng.From.UTC().Truncate(24 * time.Hour); day.Before(rng.To); day = day.Add(24 * time.Hour) {
		key := day.Format("2006-01-02")
		out.ByDay = append(out.ByDay, DayCount{Day: key, Count: counts[key]})
	}
	return out
}
