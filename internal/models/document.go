package models

import "time"

// DocumentStatus tracks review of uploaded paperwork. Blob storage itself is
// handled by an external service; only metadata lives here.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

// Document is metadata for a file a beneficiary submitted (birth certificate,
// report card, admission letter).
type Document struct {
	ID           string         `db:"id" json:"id"`
	FoundationID string         `db:"foundation_id" json:"foundation_id"`
	OwnerID      string         `db:"owner_id" json:"owner_id"`
	DocType      string         `db:"doc_type" json:"doc_type"`
	FileName     string         `db:"file_name" json:"file_name"`
	ContentType  string         `db:"content_type" json:"content_type"`
	SizeBytes    int64          `db:"size_bytes" json:"size_bytes"`
	StorageKey   string         `db:"storage_key" json:"-"`
	Status       DocumentStatus `db:"status" json:"status"`
	RejectReason string         `db:"reject_reason" json:"reject_reason,omitempty"`
	VerifiedBy   *string        `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt   *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	FoundationID *string
	OwnerID      *string
	DocType      string
	Status       *DocumentStatus
	Page         int
	PageSize     int
}
