package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SupportFrequency enumerates how often an amount is paid out.
type SupportFrequency string

const (
	FrequencyOnce     SupportFrequency = "once"
	FrequencyMonthly  SupportFrequency = "monthly"
	FrequencyTermly   SupportFrequency = "termly"
	FrequencyAnnually SupportFrequency = "annually"
)

// EligibilityRules is the structured predicate evaluated against a
// beneficiary profile. Zero values mean "not configured".
type EligibilityRules struct {
	MinAcademicLevel      string   `json:"min_academic_level,omitempty"`
	MaxAcademicLevel      string   `json:"max_academic_level,omitempty"`
	MinAge                *int     `json:"min_age,omitempty"`
	MaxAge                *int     `json:"max_age,omitempty"`
	RequiresMinGrade      *float64 `json:"requires_min_grade,omitempty"`
	GenderRestriction     string   `json:"gender_restriction,omitempty"`
	SchoolTypeRestriction []string `json:"school_type_restriction,omitempty"`
	SpecialConditions     []string `json:"special_conditions,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (r EligibilityRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage.
func (r *EligibilityRules) Scan(src interface{}) error {
	return scanJSON("eligibility rules", src, r)
}

// AmountTier defines payout amounts for one academic-level group, or the
// wildcard group "all".
type AmountTier struct {
	AcademicLevel         string             `json:"academic_level"`
	MinAmount             float64            `json:"min_amount"`
	MaxAmount             float64            `json:"max_amount"`
	DefaultAmount         float64            `json:"default_amount"`
	Currency              string             `json:"currency"`
	Frequency             SupportFrequency   `json:"frequency"`
	SchoolTypeMultipliers map[string]float64 `json:"school_type_multipliers,omitempty"`
}

// AmountTiers is the ordered tier table stored as JSONB.
type AmountTiers []AmountTier

// Value implements driver.Valuer for JSONB storage.
func (t AmountTiers) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSONB storage.
func (t *AmountTiers) Scan(src interface{}) error {
	return scanJSON("amount tiers", src, t)
}

// ApplicationSettings governs how applications against this support type are
// accepted.
type ApplicationSettings struct {
	AcceptingApplications bool       `json:"accepting_applications"`
	Deadline              *time.Time `json:"deadline,omitempty"`
	MaxPerSession         int        `json:"max_per_session,omitempty"`
	RequiresInterview     bool       `json:"requires_interview,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (s ApplicationSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB storage.
func (s *ApplicationSettings) Scan(src interface{}) error {
	return scanJSON("application settings", src, s)
}

// PerformanceRequirements are ongoing conditions a beneficiary must keep
// meeting to retain support.
type PerformanceRequirements struct {
	MinTermAverage   *float64 `json:"min_term_average,omitempty"`
	MinAttendancePct *float64 `json:"min_attendance_pct,omitempty"`
	ReviewEverySess  bool     `json:"review_every_session,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (p PerformanceRequirements) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage.
func (p *PerformanceRequirements) Scan(src interface{}) error {
	return scanJSON("performance requirements", src, p)
}

// PriorityWeights is a scoring rubric used to rank applicants. Weights are
// signed and not necessarily normalised.
type PriorityWeights struct {
	FinancialNeed       int `json:"financial_need"`
	AcademicPerformance int `json:"academic_performance"`
	Attendance          int `json:"attendance"`
	Distance            int `json:"distance"`
	SpecialCircumstance int `json:"special_circumstance"`
}

// Value implements driver.Valuer for JSONB storage.
func (w PriorityWeights) Value() (driver.Value, error) {
	return json.Marshal(w)
}

// Scan implements sql.Scanner for JSONB storage.
func (w *PriorityWeights) Scan(src interface{}) error {
	return scanJSON("priority weights", src, w)
}

// StringList is a []string stored as JSONB.
type StringList []string

// Value implements driver.Valuer for JSONB storage.
func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB storage.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON("string list", src, l)
}

// SupportConfiguration describes one support program offered by a foundation.
// At most one active configuration may exist per (foundation_id, support_type);
// removal is modeled as Active=false and is reversible.
type SupportConfiguration struct {
	ID                      string                  `db:"id" json:"id"`
	FoundationID            string                  `db:"foundation_id" json:"foundation_id"`
	SupportType             string                  `db:"support_type" json:"support_type"`
	DisplayName             string                  `db:"display_name" json:"display_name"`
	Description             string                  `db:"description" json:"description,omitempty"`
	EligibilityRules        EligibilityRules        `db:"eligibility_rules" json:"eligibility_rules"`
	AmountConfig            AmountTiers             `db:"amount_config" json:"amount_config"`
	RequiredDocuments       StringList              `db:"required_documents" json:"required_documents,omitempty"`
	ApplicationSettings     ApplicationSettings     `db:"application_settings" json:"application_settings"`
	PerformanceRequirements PerformanceRequirements `db:"performance_requirements" json:"performance_requirements"`
	PriorityWeights         PriorityWeights         `db:"priority_weights" json:"priority_weights"`
	Active                  bool                    `db:"active" json:"active"`
	CreatedAt               time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time               `db:"updated_at" json:"updated_at"`
}

// EligibilityResult is derived per user; applications keep a JSONB snapshot
// of the result as seen at submission time. Locked is distinct from
// ineligible: a locked result means the profile is too incomplete to judge
// at all.
type EligibilityResult struct {
	IsEligible          bool     `json:"is_eligible"`
	IsLocked            bool     `json:"is_locked"`
	Reasons             []string `json:"reasons,omitempty"`
	MissingRequirements []string `json:"missing_requirements,omitempty"`
	RequiredLevel       string   `json:"required_level,omitempty"`
	CurrentLevel        string   `json:"current_level,omitempty"`
}

// Value implements driver.Valuer so snapshots can be stored on applications.
func (r EligibilityResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage.
func (r *EligibilityResult) Scan(src interface{}) error {
	return scanJSON("eligibility result", src, r)
}

// AmountResult is the computed payout for a user, derived and never persisted.
type AmountResult struct {
	Min       float64          `json:"min"`
	Max       float64          `json:"max"`
	Default   float64          `json:"default"`
	Currency  string           `json:"currency"`
	Frequency SupportFrequency `json:"frequency"`
}

// EvaluatedSupportConfiguration annotates a configuration with the outcome
// for a specific beneficiary.
type EvaluatedSupportConfiguration struct {
	SupportConfiguration
	Eligibility     EligibilityResult `json:"eligibility"`
	EstimatedAmount AmountResult      `json:"estimated_amount"`
}

func scanJSON(label string, src interface{}, dest interface{}) error {
	if src == nil {
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%s: unsupported scan type %T", label, src)
	}
	return json.Unmarshal(data, dest)
}
