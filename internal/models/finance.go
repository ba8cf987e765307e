package models

import "time"

// DisbursementStatus tracks payout lifecycle.
type DisbursementStatus string

const (
	DisbursementPending DisbursementStatus = "pending"
	DisbursementPaid    DisbursementStatus = "paid"
	DisbursementFailed  DisbursementStatus = "failed"
)

// Disbursement is one payout to a beneficiary under a support type.
type Disbursement struct {
	ID            string             `db:"id" json:"id"`
	FoundationID  string             `db:"foundation_id" json:"foundation_id"`
	BeneficiaryID string             `db:"beneficiary_id" json:"beneficiary_id"`
	SupportType   string             `db:"support_type" json:"support_type"`
	Amount        float64            `db:"amount" json:"amount"`
	Currency      string             `db:"currency" json:"currency"`
	Status        DisbursementStatus `db:"status" json:"status"`
	Reference     string             `db:"reference" json:"reference"`
	Note          string             `db:"note" json:"note,omitempty"`
	DisbursedAt   *time.Time         `db:"disbursed_at" json:"disbursed_at,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// DisbursementFilter narrows disbursement listings.
type DisbursementFilter struct {
	FoundationID  *string
	BeneficiaryID *string
	SupportType   string
	Status        *DisbursementStatus
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// FinanceSummary aggregates payouts for a foundation.
type FinanceSummary struct {
	FoundationID   string  `db:"foundation_id" json:"foundation_id"`
	TotalPaid      float64 `db:"total_paid" json:"total_paid"`
	TotalPending   float64 `db:"total_pending" json:"total_pending"`
	CountPaid      int     `db:"count_paid" json:"count_paid"`
	CountPending   int     `db:"count_pending" json:"count_pending"`
	Beneficiaries  int     `db:"beneficiaries" json:"beneficiaries"`
	LatestPayoutAt *string `db:"latest_payout_at" json:"latest_payout_at,omitempty"`
}
