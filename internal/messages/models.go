package messages

import "time"

// Message is one SMS or email in a contact's communications history.
type Message struct {
	ID string `json:"id" db:"id"`

	// ProviderMessageID is the id assigned by the SMS or email provider.
	ProviderMessageID string `json:"provider_message_id,omitempty" db:"provider_message_id"`

	ContactID string `json:"contact_id,omitempty" db:"contact_id"`
	UserID    string `json:"user_id,omitempty" db:"user_id"`

	Channel   Channel   `json:"channel" db:"channel"`
	Direction Direction `json:"direction" db:"direction"`

	// From and To are phone numbers for SMS, addresses for email.
	From string `json:"from" db:"from_addr"`
	To   string `json:"to" db:"to_addr"`

	Subject string `json:"subject,omitempty" db:"subject"`
	Body    string `json:"body" db:"body"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)
