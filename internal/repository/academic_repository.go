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

const sessionColumns = `id, foundation_id, name, start_date, end_date, active, created_at, updated_at`
const performanceColumns = `id, foundation_id, beneficiary_id, session_id, term, academic_level, grade_percentage, attendance_pct, remarks, recorded_by, created_at`

// AcademicRepository provides database access for sessions and performance
// records.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository creates a new instance of AcademicRepository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// ListSessions returns a foundation's sessions, newest first.
func (r *AcademicRepository) ListSessions(ctx context.Context, foundationID string) ([]models.AcademicSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_sessions WHERE foundation_id = $1 ORDER BY start_date DESC`, sessionColumns)
	var sessions []models.AcademicSession
	if err := r.db.SelectContext(ctx, &sessions, query, foundationID); err != nil {
		return nil, fmt.Errorf("list academic sessions: %w", err)
	}
	return sessions, nil
}

// FindSessionByID returns a session by identifier.
func (r *AcademicRepository) FindSessionByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_sessions WHERE id = $1 LIMIT 1`, sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find academic session by id: %w", err)
	}
	return &session, nil
}

// CreateSession inserts a new session.
func (r *AcademicRepository) CreateSession(ctx context.Context, session *models.AcademicSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO academic_sessions (id, foundation_id, name, start_date, end_date, active, created_at, updated_at) VALUES (:id, :foundation_id, :name, :start_date, :end_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create academic session: %w", err)
	}
	return nil
}

// UpdateSession updates a session's mutable fields.
func (r *AcademicRepository) UpdateSession(ctx context.Context, session *models.AcademicSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_sessions SET name = :name, start_date = :start_date, end_date = :end_date, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update academic session: %w", err)
	}
	return nil
}

// DeactivateSessions closes all active sessions for a foundation.
func (r *AcademicRepository) DeactivateSessions(ctx context.Context, foundationID string) error {
	const query = `UPDATE academic_sessions SET active = FALSE, updated_at = $2 WHERE foundation_id = $1 AND active = TRUE`
	if _, err := r.db.ExecContext(ctx, query, foundationID, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate academic sessions: %w", err)
	}
	return nil
}

// ListPerformance returns performance records based on filters with total
// count, newest first.
func (r *AcademicRepository) ListPerformance(ctx context.Context, filter models.PerformanceFilter) ([]models.PerformanceRecord, int, error) {
	baseQuery := `FROM performance_records WHERE 1=1`
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
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", performanceColumns, baseQuery, pageSize, offset)

	var records []models.PerformanceRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list performance records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count performance records: %w", err)
	}

	return records, total, nil
}

// CreatePerformance inserts a new performance record.
func (r *AcademicRepository) CreatePerformance(ctx context.Context, record *models.PerformanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO performance_records (id, foundation_id, beneficiary_id, session_id, term, academic_level, grade_percentage, attendance_pct, remarks, recorded_by, created_at) VALUES (:id, :foundation_id, :beneficiary_id, :session_id, :term, :academic_level, :grade_percentage, :attendance_pct, :remarks, :recorded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create performance record: %w", err)
	}
	return nil
}
