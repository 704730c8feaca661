package calls

import "time"

// Call is one call attempt, outbound or inbound.
//
// Invariants:
// - A new attempt always creates a new row; rows are never reused.
// - At most one non-terminal row exists per attempt.
// - Once Status is terminal the row never transitions again (enforced by
//   conditional UPDATEs in the repository).
//
// ProviderCallID is assigned by the telephony provider once it accepts the
// call request and stays empty until then. Status updates arriving on the
// provider webhook are keyed by it.

type Call struct {
	ID             string `json:"id" db:"id"`
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	ContactID string `json:"contact_id,omitempty" db:"contact_id"`
	UserID    string `json:"user_id" db:"user_id"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Direction Direction  `json:"direction" db:"direction"`
	Status    CallStatus `json:"status" db:"status"`

	// DurationSeconds is set on the terminal update from the provider webhook.
	DurationSeconds int `json:"duration" db:"duration"`

	Notes string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// CallStatus is the closed set of lifecycle states. Provider strings are
// mapped through ParseProviderStatus; anything unmapped becomes
// CallStatusUnknown rather than being carried through as a raw string.
type CallStatus string

const (
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusConnecting CallStatus = "connecting"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusBusy       CallStatus = "busy"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusCanceled   CallStatus = "canceled"
	CallStatusUnknown    CallStatus = "unknown"
)

// Rank orders statuses by forward progress for the lifecycle merge rule.
// All terminal statuses share one rank: they are mutually exclusive and
// equally final. Unknown ranks below everything so it can never advance a
// published status.
func (s CallStatus) Rank() int {
	switch s {
	case CallStatusInitiated:
		return 0
	case CallStatusConnecting:
		return 1
	case CallStatusRinging:
		return 2
	case CallStatusInProgress:
		return 3
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return 4
	default:
		return -1
	}
}

// IsTerminal reports whether no further transition out of s is valid.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return true
	default:
		return false
	}
}

func (s CallStatus) Valid() bool {
	return s.Rank() >= 0
}

// ParseProviderStatus maps a raw provider callback status to a CallStatus.
// The mapping is exhaustive over the provider's documented voice statuses;
// anything else is CallStatusUnknown, never a silent coercion.
func ParseProviderStatus(raw string) CallStatus {
	switch raw {
	case "queued", "initiated":
		return CallStatusInitiated
	case "ringing":
		return CallStatusRinging
	case "in-progress", "answered":
		return CallStatusInProgress
	case "completed":
		return CallStatusCompleted
	case "busy":
		return CallStatusBusy
	case "failed":
		return CallStatusFailed
	case "no-answer":
		return CallStatusNoAnswer
	case "canceled":
		return CallStatusCanceled
	default:
		return CallStatusUnknown
	}
}
