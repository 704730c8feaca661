package contacts

import "time"

// Contact is a person the CRM tracks. Phone and Email feed click-to-call,
// SMS, and email; at least one of them is required so every contact is
// reachable somehow.
type Contact struct {
	ID string `json:"id" db:"id"`

	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Company   string `json:"company,omitempty" db:"company"`

	Email string `json:"email,omitempty" db:"email"`
	Phone string `json:"phone,omitempty" db:"phone"`

	Notes string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
