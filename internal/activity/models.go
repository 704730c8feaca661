package activity

import "time"

// Entry is an append-only record of something a user did in the CRM: placed
// a call, sent a message, moved a deal, converted a lead. Entries feed the
// timeline view on contact and deal pages.
//
// Invariants:
// - Entries are never updated or deleted.
// - Recording is best-effort; a failed append must never block the flow
//   that produced it.

type Entry struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Type EntryType `json:"type" db:"type"`

	// Target identifiers, set depending on the entry type.
	ContactID string `json:"contact_id,omitempty" db:"contact_id"`
	DealID    string `json:"deal_id,omitempty" db:"deal_id"`
	LeadID    string `json:"lead_id,omitempty" db:"lead_id"`
	CallID    string `json:"call_id,omitempty" db:"call_id"`
	MessageID string `json:"message_id,omitempty" db:"message_id"`

	// Summary is a short human-readable line for the timeline.
	Summary string `json:"summary,omitempty" db:"summary"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EntryType string

const (
	EntryTypeCallPlaced    EntryType = "call_placed"
	EntryTypeCallFinished  EntryType = "call_finished"
	EntryTypeMessageSent   EntryType = "message_sent"
	EntryTypeDealMoved     EntryType = "deal_moved"
	EntryTypeLeadConverted EntryType = "lead_converted"
)
