package models

import "time"

// Message is an intra-foundation message between two users.
type Message struct {
	ID           string     `db:"id" json:"id"`
	FoundationID string     `db:"foundation_id" json:"foundation_id"`
	SenderID     string     `db:"sender_id" json:"sender_id"`
	RecipientID  string     `db:"recipient_id" json:"recipient_id"`
	Subject      string     `db:"subject" json:"subject"`
	Body         string     `db:"body" json:"body"`
	Read         bool       `db:"read" json:"read"`
	ReadAt       *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// MessageFilter narrows message listings.
type MessageFilter struct {
	FoundationID *string
	SenderID     *string
	RecipientID  *string
	UnreadOnly   bool
	Page         int
	PageSize     int
}
