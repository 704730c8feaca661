package leads

import "time"

// Lead is an unqualified prospect, kept apart from the contact book until
// someone converts it. Conversion is one-way: once ConvertedContactID is
// set the lead is frozen.
type Lead struct {
	ID string `json:"id" db:"id"`

	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Company   string `json:"company,omitempty" db:"company"`

	Email string `json:"email,omitempty" db:"email"`
	Phone string `json:"phone,omitempty" db:"phone"`

	// Source is where the lead came from: web form, import, referral.
	Source string `json:"source,omitempty" db:"source"`

	Status  LeadStatus `json:"status" db:"status"`
	OwnerID string     `json:"owner_id" db:"owner_id"`
	Notes   string     `json:"notes,omitempty" db:"notes"`

	ConvertedContactID string `json:"converted_contact_id,omitempty" db:"converted_contact_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusQualified LeadStatus = "qualified"
	StatusLost      LeadStatus = "lost"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusLost:
		return true
	}
	return false
}
