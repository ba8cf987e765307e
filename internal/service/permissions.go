package service

import "github.com/beaconaid/foundation-api/internal/models"

// Operation names for the capability table. Roles are deliberately listed per
// operation instead of being derived from a ranking: reviewer, beneficiary
// and guardian each touch different, non-overlapping operation subsets, so
// there is no consistent hierarchy to derive from.
const (
	OpUserList        = "users.list"
	OpUserGet         = "users.get"
	OpUserCreate      = "users.create"
	OpUserUpdate      = "users.update"
	OpUserDeactivate  = "users.deactivate"
	OpProfileComplete = "users.complete_profile"

	OpFoundationList   = "foundations.list"
	OpFoundationGet    = "foundations.get"
	OpFoundationCreate = "foundations.create"
	OpFoundationUpdate = "foundations.update"

	OpSupportList       = "support_configs.list"
	OpSupportForUser    = "support_configs.list_for_beneficiary"
	OpSupportCreate     = "support_configs.create"
	OpSupportUpdate     = "support_configs.update"
	OpSupportDeactivate = "support_configs.deactivate"
	OpSupportReactivate = "support_configs.reactivate"
	OpSupportSeed       = "support_configs.seed_defaults"

	OpApplicationList   = "applications.list"
	OpApplicationGet    = "applications.get"
	OpApplicationSubmit = "applications.submit"
	OpApplicationAssign = "applications.assign_reviewer"
	OpApplicationDecide = "applications.decide"

	OpSessionList       = "academic_sessions.list"
	OpSessionCreate     = "academic_sessions.create"
	OpPerformanceList   = "performance.list"
	OpPerformanceRecord = "performance.record"

	OpDisbursementList   = "disbursements.list"
	OpDisbursementCreate = "disbursements.create"
	OpDisbursementMark   = "disbursements.mark"
	OpFinanceSummary     = "finance.summary"
	OpFinanceExport      = "finance.export"

	OpProgramList   = "programs.list"
	OpProgramCreate = "programs.create"
	OpProgramEnroll = "programs.enroll"

	OpDocumentList   = "documents.list"
	OpDocumentCreate = "documents.create"
	OpDocumentVerify = "documents.verify"

	OpMessageSend = "messages.send"
	OpMessageList = "messages.list"

	OpNotificationList = "notifications.list"
	OpNotificationRead = "notifications.mark_read"

	OpAuditList = "audit.list"
)

var operationRoles = map[string][]models.UserRole{
	OpUserList:        {models.RoleSuperAdmin, models.RoleAdmin},
	OpUserGet:         {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer},
	OpUserCreate:      {models.RoleSuperAdmin, models.RoleAdmin},
	OpUserUpdate:      {models.RoleSuperAdmin, models.RoleAdmin},
	OpUserDeactivate:  {models.RoleSuperAdmin, models.RoleAdmin},
	OpProfileComplete: {models.RoleBeneficiary, models.RoleGuardian},

	OpFoundationList:   {models.RoleSuperAdmin},
	OpFoundationGet:    {models.RoleSuperAdmin, models.RoleAdmin},
	OpFoundationCreate: {models.RoleSuperAdmin},
	OpFoundationUpdate: {models.RoleSuperAdmin, models.RoleAdmin},

	OpSupportList:       {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer},
	OpSupportForUser:    {models.RoleBeneficiary, models.RoleGuardian},
	OpSupportCreate:     {models.RoleSuperAdmin, models.RoleAdmin},
	OpSupportUpdate:     {models.RoleSuperAdmin, models.RoleAdmin},
	OpSupportDeactivate: {models.RoleSuperAdmin, models.RoleAdmin},
	OpSupportReactivate: {models.RoleSuperAdmin, models.RoleAdmin},
	OpSupportSeed:       {models.RoleSuperAdmin, models.RoleAdmin},

	OpApplicationList:   {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer},
	OpApplicationGet:    {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},
	OpApplicationSubmit: {models.RoleBeneficiary, models.RoleGuardian},
	OpApplicationAssign: {models.RoleSuperAdmin, models.RoleAdmin},
	OpApplicationDecide: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer},

	OpSessionList:       {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer},
	OpSessionCreate:     {models.RoleSuperAdmin, models.RoleAdmin},
	OpPerformanceList:   {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},
	OpPerformanceRecord: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer},

	OpDisbursementList:   {models.RoleSuperAdmin, models.RoleAdmin},
	OpDisbursementCreate: {models.RoleSuperAdmin, models.RoleAdmin},
	OpDisbursementMark:   {models.RoleSuperAdmin, models.RoleAdmin},
	OpFinanceSummary:     {models.RoleSuperAdmin, models.RoleAdmin},
	OpFinanceExport:      {models.RoleSuperAdmin, models.RoleAdmin},

	OpProgramList:   {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},
	OpProgramCreate: {models.RoleSuperAdmin, models.RoleAdmin},
	OpProgramEnroll: {models.RoleSuperAdmin, models.RoleAdmin},

	OpDocumentList:   {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},
	OpDocumentCreate: {models.RoleBeneficiary, models.RoleGuardian},
	OpDocumentVerify: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer},

	OpMessageSend: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},
	OpMessageList: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},

	OpNotificationList: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},
	OpNotificationRead: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer, models.RoleBeneficiary, models.RoleGuardian},

	OpAuditList: {models.RoleSuperAdmin, models.RoleAdmin},
}

// AllowedRoles returns the role allow-list for an operation. Unknown
// operations get an empty list, which denies everyone.
func AllowedRoles(operation string) []models.UserRole {
	return operationRoles[operation]
}

// AllRoles lists every role. Self-service operations (logout, password
// change, own notifications) are open to any authenticated account.
func AllRoles() []models.UserRole {
	return []models.UserRole{
		models.RoleSuperAdmin,
		models.RoleAdmin,
		models.RoleReviewer,
		models.RoleBeneficiary,
		models.RoleGuardian,
	}
}
