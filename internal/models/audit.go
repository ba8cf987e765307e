package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionLogout            = "LOGOUT"
	AuditActionUserCreate        = "USER_CREATE"
	AuditActionUserUpdate        = "USER_UPDATE"
	AuditActionUserDeactivate    = "USER_DEACTIVATE"
	AuditActionUserReactivate    = "USER_REACTIVATE"
	AuditActionProfileComplete   = "PROFILE_COMPLETE"
	AuditActionPasswordChange    = "PASSWORD_CHANGE"
	AuditActionFoundationCreate  = "FOUNDATION_CREATE"
	AuditActionFoundationUpdate  = "FOUNDATION_UPDATE"
	AuditActionSupportCreate     = "SUPPORT_CONFIG_CREATE"
	AuditActionSupportUpdate     = "SUPPORT_CONFIG_UPDATE"
	AuditActionSupportDeactivate = "SUPPORT_CONFIG_DEACTIVATE"
	AuditActionSupportReactivate = "SUPPORT_CONFIG_REACTIVATE"
	AuditActionSupportSeed       = "SUPPORT_CONFIG_SEED"
	AuditActionApplicationSubmit = "APPLICATION_SUBMIT"
	AuditActionApplicationReview = "APPLICATION_REVIEW"
	AuditActionApplicationDecide = "APPLICATION_DECIDE"
	AuditActionSessionCreate     = "SESSION_CREATE"
	AuditActionSessionClose      = "SESSION_CLOSE"
	AuditActionPerformanceRecord = "PERFORMANCE_RECORD"
	AuditActionDisbursement      = "DISBURSEMENT_CREATE"
	AuditActionDisbursementMark  = "DISBURSEMENT_MARK"
	AuditActionProgramCreate     = "PROGRAM_CREATE"
	AuditActionProgramEnroll     = "PROGRAM_ENROLL"
	AuditActionDocumentCreate    = "DOCUMENT_CREATE"
	AuditActionDocumentVerify    = "DOCUMENT_VERIFY"
	AuditActionMessageSend       = "MESSAGE_SEND"
)

// Audit risk levels. Mutations on money and access are flagged higher so
// reviews can filter on them.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// AuditLog represents one append-only audit trail record. Every mutating
// operation writes one after the mutation succeeds.
type AuditLog struct {
	ID           string    `db:"id" json:"id"`
	FoundationID *string   `db:"foundation_id" json:"foundation_id,omitempty"`
	ActorID      *string   `db:"actor_id" json:"actor_id,omitempty"`
	ActorEmail   string    `db:"actor_email" json:"actor_email,omitempty"`
	ActorRole    string    `db:"actor_role" json:"actor_role,omitempty"`
	Action       string    `db:"action" json:"action"`
	EntityType   string    `db:"entity_type" json:"entity_type"`
	EntityID     *string   `db:"entity_id" json:"entity_id,omitempty"`
	Description  string    `db:"description" json:"description"`
	RiskLevel    string    `db:"risk_level" json:"risk_level"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	UserAgent    string    `db:"user_agent" json:"user_agent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RequestMeta carries client details threaded into audit records.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	FoundationID *string
	ActorID      *string
	Action       string
	EntityType   string
	RiskLevel    string
	Page         int
	PageSize     int
}
