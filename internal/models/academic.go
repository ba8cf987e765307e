package models

import "time"

// AcademicSession is a school year window within a foundation.
type AcademicSession struct {
	ID           string    `db:"id" json:"id"`
	FoundationID string    `db:"foundation_id" json:"foundation_id"`
	Name         string    `db:"name" json:"name"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PerformanceRecord captures a beneficiary's results for one term. The most
// recent grade percentage feeds the eligibility evaluator's minimum-grade
// rule through the beneficiary profile.
type PerformanceRecord struct {
	ID              string    `db:"id" json:"id"`
	FoundationID    string    `db:"foundation_id" json:"foundation_id"`
	BeneficiaryID   string    `db:"beneficiary_id" json:"beneficiary_id"`
	SessionID       string    `db:"session_id" json:"session_id"`
	Term            string    `db:"term" json:"term"`
	AcademicLevel   string    `db:"academic_level" json:"academic_level"`
	GradePercentage float64   `db:"grade_percentage" json:"grade_percentage"`
	AttendancePct   *float64  `db:"attendance_pct" json:"attendance_pct,omitempty"`
	Remarks         string    `db:"remarks" json:"remarks,omitempty"`
	RecordedBy      string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// PerformanceFilter narrows performance record listings.
type PerformanceFilter struct {
	FoundationID  *string
	BeneficiaryID *string
	SessionID     string
	Term          string
	Page          int
	PageSize      int
}
