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

const applicationColumns = `id, foundation_id, applicant_id, support_type, status, reviewer_id, eligibility_snapshot, requested_amount, approved_amount, decision_note, submitted_at, decided_at, created_at, updated_at`

// ApplicationRepository provides database access for support applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// List returns applications based on filters with total count, newest first.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	baseQuery := `FROM applications WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.FoundationID != nil {
		conditions = append(conditions, fmt.Sprintf("foundation_id = $%d", len(args)+1))
		args = append(args, *filter.FoundationID)
	}
	if filter.ApplicantID != nil {
		conditions = append(conditions, fmt.Sprintf("applicant_id = $%d", len(args)+1))
		args = append(args, *filter.ApplicantID)
	}
	if filter.ReviewerID != nil {
		conditions = append(conditions, fmt.Sprintf("reviewer_id = $%d", len(args)+1))
		args = append(args, *filter.ReviewerID)
	}
	if filter.SupportType != "" {
		conditions = append(conditions, fmt.Sprintf("support_type = $%d", len(args)+1))
		args = append(args, filter.SupportType)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d", applicationColumns, baseQuery, pageSize, offset)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	return apps, total, nil
}

// FindByID returns an application by identifier.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1 LIMIT 1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return &app, nil
}

// CountOpenByApplicantAndType counts the applicant's undecided applications
// of one support type.
func (r *ApplicationRepository) CountOpenByApplicantAndType(ctx context.Context, applicantID, supportType string) (int, error) {
	const query = `SELECT COUNT(*) FROM applications WHERE applicant_id = $1 AND support_type = $2 AND status IN ('pending', 'under_review')`
	var count int
	if err := r.db.GetContext(ctx, &count, query, applicantID, supportType); err != nil {
		return 0, fmt.Errorf("count open applications: %w", err)
	}
	return count, nil
}

// Create inserts a new application.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	app.UpdatedAt = now

	const query = `INSERT INTO applications (id, foundation_id, applicant_id, support_type, status, reviewer_id, eligibility_snapshot, requested_amount, approved_amount, decision_note, submitted_at, decided_at, created_at, updated_at) VALUES (:id, :foundation_id, :applicant_id, :support_type, :status, :reviewer_id, :eligibility_snapshot, :requested_amount, :approved_amount, :decision_note, :submitted_at, :decided_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// Update updates an application's workflow fields.
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications SET status = :status, reviewer_id = :reviewer_id, approved_amount = :approved_amount, decision_note = :decision_note, decided_at = :decided_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}
