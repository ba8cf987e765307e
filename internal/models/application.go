package models

import "time"

// ApplicationStatus tracks the intake workflow.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationApproved    ApplicationStatus = "approved"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// Application is a beneficiary's request for support of a given type. The
// eligibility snapshot is computed once at submission so reviewers see what
// the evaluator decided at that point, even if the profile changes later.
type Application struct {
	ID                  string            `db:"id" json:"id"`
	FoundationID        string            `db:"foundation_id" json:"foundation_id"`
	ApplicantID         string            `db:"applicant_id" json:"applicant_id"`
	SupportType         string            `db:"support_type" json:"support_type"`
	Status              ApplicationStatus `db:"status" json:"status"`
	ReviewerID          *string           `db:"reviewer_id" json:"reviewer_id,omitempty"`
	EligibilitySnapshot EligibilityResult `db:"eligibility_snapshot" json:"eligibility_snapshot"`
	RequestedAmount     float64           `db:"requested_amount" json:"requested_amount"`
	ApprovedAmount      *float64          `db:"approved_amount" json:"approved_amount,omitempty"`
	DecisionNote        string            `db:"decision_note" json:"decision_note,omitempty"`
	SubmittedAt         time.Time         `db:"submitted_at" json:"submitted_at"`
	DecidedAt           *time.Time        `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	FoundationID *string
	ApplicantID  *string
	ReviewerID   *string
	SupportType  string
	Status       *ApplicationStatus
	Page         int
	PageSize     int
}
