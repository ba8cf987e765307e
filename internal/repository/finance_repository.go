package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/beaconaid/foundation-api/internal/models"
)

const disbursementColumns = `id, foundation_id, beneficiary_id, support_type, amount, currency, status, reference, note, disbursed_at, created_at, updated_at`

// FinanceRepository provides database access for disbursements.
type FinanceRepository struct {
	db *sqlx.DB
}

// NewFinanceRepository creates a new instance of FinanceRepository.
func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// List returns disbursements based on filters with total count, newest first.
func (r *FinanceRepository) List(ctx context.Context, filter models.DisbursementFilter) ([]models.Disbursement, int, error) {
	baseQuery := `FROM disbursements WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.FoundationID != nil {
		conditions = append(conditions, fmt.Sprintf("foundation_id = $%d", len(args)+1))
		args = append(args, *filter.FoundationID)
	}
	if filter.BeneficiaryID != nil {
		conditions = append(conditions, fmt.Sprintf("beneficiary_id = $%d", len(args)+1))
		args = append(args, *filter.BeneficiaryID)
	}
	if filter.SupportType != "" {
		conditions = append(conditions, fmt.Sprintf("support_type = $%d", len(args)+1))
		args = append(args, filter.SupportType)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", disbursementColumns, baseQuery, pageSize, offset)

	var rows []models.Disbursement
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list disbursements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count disbursements: %w", err)
	}

	return rows, total, nil
}

// FindByID returns a disbursement by identifier.
func (r *FinanceRepository) FindByID(ctx context.Context, id string) (*models.Disbursement, error) {
	query := fmt.Sprintf(`SELECT %s FROM disbursements WHERE id = $1 LIMIT 1`, disbursementColumns)
	var d models.Disbursement
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find disbursement by id: %w", err)
	}
	return &d, nil
}

// Create inserts a new disbursement.
func (r *FinanceRepository) Create(ctx context.Context, d *models.Disbursement) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	const query = `INSERT INTO disbursements (id, foundation_id, beneficiary_id, support_type, amount, currency, status, reference, note, disbursed_at, created_at, updated_at) VALUES (:id, :foundation_id, :beneficiary_id, :support_type, :amount, :currency, :status, :reference, :note, :disbursed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create disbursement: %w", err)
	}
	return nil
}

// Update updates settlement fields of a disbursement.
func (r *FinanceRepository) Update(ctx context.Context, d *models.Disbursement) error {
	d.UpdatedAt = time.Now().UTC()
	const query = `UPDATE disbursements SET status = :status, note = :note, disbursed_at = :disbursed_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("update disbursement: %w", err)
	}
	return nil
}

// Summary aggregates payout totals for a foundation.
func (r *FinanceRepository) Summary(ctx context.Context, foundationID string) (*models.FinanceSummary, error) {
	const query = `SELECT
		$1 AS foundation_id,
		COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0) AS total_paid,
		COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0) AS total_pending,
		COUNT(*) FILTER (WHERE status = 'paid') AS count_paid,
		COUNT(*) FILTER (WHERE status = 'pending') AS count_pending,
		COUNT(DISTINCT beneficiary_id) AS beneficiaries,
		TO_CHAR(MAX(disbursed_at), 'YYYY-MM-DD"T"HH24:MI:SS"Z"') AS latest_payout_at
	FROM disbursements WHERE foundation_id = $1`

	var summary models.FinanceSummary
	if err := r.db.GetContext(ctx, &summary, query, foundationID); err != nil {
		return nil, fmt.Errorf("finance summary: %w", err)
	}
	return &summary, nil
}
