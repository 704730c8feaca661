package deals

import "time"

// Deal is one opportunity moving across the Kanban board. Stage must always
// be a key defined by the active pipeline.
type Deal struct {
	ID string `json:"id" db:"id"`

	Title     string `json:"title" db:"title"`
	ContactID string `json:"contact_id,omitempty" db:"contact_id"`
	OwnerID   string `json:"owner_id" db:"owner_id"`

	Stage string `json:"stage" db:"stage"`

	// AmountMinor is the deal value in minor currency units.
	AmountMinor int64  `json:"amount_minor" db:"amount_minor"`
	Currency    string `json:"currency" db:"currency"`

	Notes string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Board is the Kanban view: deals grouped per stage, stages in pipeline
// order.
type Board struct {
	Columns []BoardColumn `json:"columns"`
}

type BoardColumn struct {
	Stage StageDef `json:"stage"`
	Deals []Deal   `json:"deals"`
}
