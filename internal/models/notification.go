package models

import "time"

// Notification kinds emitted by domain events.
const (
	NotificationApplicationStatus = "application_status"
	NotificationDisbursement      = "disbursement"
	NotificationDocumentReview    = "document_review"
	NotificationMessage           = "message"
	NotificationSystem            = "system"
)

// Notification is an in-app notification row. Dispatch (e.g. email fan-out)
// happens asynchronously on the jobs queue; DispatchedAt is set once the
// dispatcher has handled the row.
type Notification struct {
	ID           string     `db:"id" json:"id"`
	FoundationID *string    `db:"foundation_id" json:"foundation_id,omitempty"`
	UserID       string     `db:"user_id" json:"user_id"`
	Kind         string     `db:"kind" json:"kind"`
	Title        string     `db:"title" json:"title"`
	Body         string     `db:"body" json:"body"`
	Read         bool       `db:"read" json:"read"`
	ReadAt       *time.Time `db:"read_at" json:"read_at,omitempty"`
	DispatchedAt *time.Time `db:"dispatched_at" json:"dispatched_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
