package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Dashboard is the aggregate view behind the home screen: call outcomes,
// pipeline value per stage, and message volume over the requested range.
type Dashboard struct {
	Range TimeRange `json:"range"`

	Calls    CallsSummary    `json:"calls"`
	Pipeline PipelineSummary `json:"pipeline"`
	Messages MessagesSummary `json:"messages"`
}

type CallsSummary struct {
	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	BusyCalls       int `json:"busy_calls"`
	CanceledCalls   int `json:"canceled_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

// PipelineSummary groups open and closed deal value per stage, stages in
// pipeline order.
type PipelineSummary struct {
	Stages []StageSummary `json:"stages"`

	OpenDeals       int   `json:"open_deals"`
	OpenAmountMinor int64 `json:"open_amount_minor"`
	WonDeals        int   `json:"won_deals"`
	WonAmountMinor  int64 `json:"won_amount_minor"`
}

type StageSummary struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Deals       int    `json:"deals"`
	AmountMinor int64  `json:"amount_minor"`
}

type MessagesSummary struct {
	TotalSent     int `json:"total_sent"`
	TotalReceived int `json:"total_received"`

	// ByDay has one bucket per calendar day in the range, oldest first.
	ByDay []DayCount `json:"by_day"`
}

type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}
