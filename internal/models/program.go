package models

import "time"

// Program is a foundation initiative (mentorship, tutoring, outreach) that
// beneficiaries can be enrolled into.
type Program struct {
	ID           string     `db:"id" json:"id"`
	FoundationID string     `db:"foundation_id" json:"foundation_id"`
	Name         string     `db:"name" json:"name"`
	Description  string     `db:"description" json:"description,omitempty"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// EnrollmentStatus tracks program membership.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

// ProgramEnrollment links a beneficiary to a program.
type ProgramEnrollment struct {
	ID            string           `db:"id" json:"id"`
	ProgramID     string           `db:"program_id" json:"program_id"`
	BeneficiaryID string           `db:"beneficiary_id" json:"beneficiary_id"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt    time.Time        `db:"enrolled_at" json:"enrolled_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}
