package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// UserRole represents the available roles for the RBAC system. Privilege is
// not hierarchical: every operation declares its own allow-list of roles, and
// super_admin is only special in that it bypasses foundation matching.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "super_admin"
	RoleAdmin       UserRole = "admin"
	RoleReviewer    UserRole = "reviewer"
	RoleBeneficiary UserRole = "beneficiary"
	RoleGuardian    UserRole = "guardian"
)

// Profile carries optional beneficiary details completed after onboarding.
// It is stored as a JSONB column on the users table.
type Profile struct {
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	Gender               string     `json:"gender,omitempty"`
	Address              string     `json:"address,omitempty"`
	CurrentAcademicLevel string     `json:"current_academic_level,omitempty"`
	CurrentSchool        string     `json:"current_school,omitempty"`
	SchoolType           string     `json:"school_type,omitempty"`
	LastGradePercentage  *float64   `json:"last_grade_percentage,omitempty"`
	GuardianName         string     `json:"guardian_name,omitempty"`
	GuardianPhone        string     `json:"guardian_phone,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (p Profile) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage.
func (p *Profile) Scan(src interface{}) error {
	return scanJSON("profile", src, p)
}

// User represents an application user stored in the users table. Accounts are
// never hard-deleted: deactivation flips Active to false. FoundationID is nil
// only for accounts that have not been onboarded into a foundation yet; every
// non-super_admin user must be assigned before foundation-scoped operations
// succeed.
type User struct {
	ID           string     `db:"id" json:"id"`
	IdentityKey  string     `db:"identity_key" json:"-"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	FoundationID *string    `db:"foundation_id" json:"foundation_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	Profile      *Profile   `db:"profile" json:"profile,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	FoundationID *string
	Role         *UserRole
	Active       *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
