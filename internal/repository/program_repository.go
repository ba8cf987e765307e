package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/beaconaid/foundation-api/internal/models"
)

const programColumns = `id, foundation_id, name, description, start_date, end_date, active, created_at, updated_at`
const enrollmentColumns = `id, program_id, beneficiary_id, status, enrolled_at, updated_at`

// ProgramRepository provides database access for programs and enrollments.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new instance of ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListPrograms returns a foundation's programs ordered by name.
func (r *ProgramRepository) ListPrograms(ctx context.Context, foundationID string, activeOnly bool) ([]models.Program, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs WHERE foundation_id = $1`, programColumns)
	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, foundationID); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindProgramByID returns a program by identifier.
func (r *ProgramRepository) FindProgramByID(ctx context.Context, id string) (*models.Program, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs WHERE id = $1 LIMIT 1`, programColumns)
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program by id: %w", err)
	}
	return &program, nil
}

// CreateProgram inserts a new program.
func (r *ProgramRepository) CreateProgram(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now

	const query = `INSERT INTO programs (id, foundation_id, name, description, start_date, end_date, active, created_at, updated_at) VALUES (:id, :foundation_id, :name, :description, :start_date, :end_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// UpdateProgram updates a program's mutable fields.
func (r *ProgramRepository) UpdateProgram(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET name = :name, description = :description, start_date = :start_date, end_date = :end_date, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// ListEnrollments returns a program's enrollments.
func (r *ProgramRepository) ListEnrollments(ctx context.Context, programID string) ([]models.ProgramEnrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM program_enrollments WHERE program_id = $1 ORDER BY enrolled_at DESC`, enrollmentColumns)
	var enrollments []models.ProgramEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, programID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindEnrollment returns one beneficiary's enrollment in a program.
func (r *ProgramRepository) FindEnrollment(ctx context.Context, programID, beneficiaryID string) (*models.ProgramEnrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM program_enrollments WHERE program_id = $1 AND beneficiary_id = $2 LIMIT 1`, enrollmentColumns)
	var enrollment models.ProgramEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, programID, beneficiaryID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// CreateEnrollment inserts a new enrollment.
func (r *ProgramRepository) CreateEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	enrollment.UpdatedAt = now

	const query = `INSERT INTO program_enrollments (id, program_id, beneficiary_id, status, enrolled_at, updated_at) VALUES (:id, :program_id, :beneficiary_id, :status, :enrolled_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateEnrollment updates an enrollment's status.
func (r *ProgramRepository) UpdateEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE program_enrollments SET status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}
