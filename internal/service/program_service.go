package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type programRepository interface {
	ListPrograms(ctx context.Context, foundationID string, activeOnly bool) ([]models.Program, error)
	FindProgramByID(ctx context.Context, id string) (*models.Program, error)
	CreateProgram(ctx context.Context, program *models.Program) error
	UpdateProgram(ctx context.Context, program *models.Program) error
	ListEnrollments(ctx context.Context, programID string) ([]models.ProgramEnrollment, error)
	FindEnrollment(ctx context.Context, programID, beneficiaryID string) (*models.ProgramEnrollment, error)
	CreateEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error
	UpdateEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error
}

// CreateProgramRequest opens a new foundation program.
type CreateProgramRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// ProgramService manages foundation programs and beneficiary enrollments.
type ProgramService struct {
	repo      programRepository
	users     supportUserReader
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs the service.
func NewProgramService(repo programRepository, users supportUserReader, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, users: users, audit: audit, validator: validate, logger: logger}
}

// List returns a foundation's programs.
func (s *ProgramService) List(ctx context.Context, foundationID string, activeOnly bool) ([]models.Program, error) {
	programs, err := s.repo.ListPrograms(ctx, foundationID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Get returns one program, provided the actor may see it.
func (s *ProgramService) Get(ctx context.Context, id string, actor *models.User) (*models.Program, error) {
	program, err := s.repo.FindProgramByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if err := ensureFoundation(actor, program.FoundationID); err != nil {
		return nil, err
	}
	return program, nil
}

// Create opens a new program.
func (s *ProgramService) Create(ctx context.Context, foundationID string, req CreateProgramRequest, actor *models.User, meta models.RequestMeta) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}

	program := &models.Program{
		ID:           uuid.NewString(),
		FoundationID: foundationID,
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Active:       true,
	}
	if err := s.repo.CreateProgram(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}

	s.writeAudit(ctx, actor, &foundationID, models.AuditActionProgramCreate, "programs", &program.ID,
		fmt.Sprintf("Created program %s", program.Name), models.RiskLow, meta)

	return program, nil
}

// Close deactivates a program.
func (s *ProgramService) Close(ctx context.Context, id string, actor *models.User, meta models.RequestMeta) (*models.Program, error) {
	program, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !program.Active {
		return program, nil
	}

	program.Active = false
	if err := s.repo.UpdateProgram(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close program")
	}

	s.writeAudit(ctx, actor, &program.FoundationID, models.AuditActionProgramCreate, "programs", &program.ID,
		fmt.Sprintf("Closed program %s", program.Name), models.RiskLow, meta)

	return program, nil
}

// Enrollments lists a program's enrollments.
func (s *ProgramService) Enrollments(ctx context.Context, programID string, actor *models.User) ([]models.ProgramEnrollment, error) {
	if _, err := s.Get(ctx, programID, actor); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.ListEnrollments(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Enroll adds a beneficiary to an active program.
func (s *ProgramService) Enroll(ctx context.Context, programID, beneficiaryID string, actor *models.User, meta models.RequestMeta) (*models.ProgramEnrollment, error) {
	program, err := s.Get(ctx, programID, actor)
	if err != nil {
		return nil, err
	}
	if !program.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "program is not active")
	}

	beneficiary, err := s.users.FindByID(ctx, beneficiaryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beneficiary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beneficiary")
	}
	if beneficiary.FoundationID == nil || *beneficiary.FoundationID != program.FoundationID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "beneficiary belongs to a different foundation")
	}

	existing, err := s.repo.FindEnrollment(ctx, programID, beneficiaryID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if existing != nil && existing.Status == models.EnrollmentActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "beneficiary is already enrolled")
	}

	enrollment := &models.ProgramEnrollment{
		ID:            uuid.NewString(),
		ProgramID:     programID,
		BeneficiaryID: beneficiaryID,
		Status:        models.EnrollmentActive,
		EnrolledAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll beneficiary")
	}

	s.writeAudit(ctx, actor, &program.FoundationID, models.AuditActionProgramEnroll, "program_enrollments", &enrollment.ID,
		fmt.Sprintf("Enrolled beneficiary %s into %s", beneficiaryID, program.Name), models.RiskLow, meta)

	return enrollment, nil
}

// UpdateEnrollment marks an enrollment completed or withdrawn.
func (s *ProgramService) UpdateEnrollment(ctx context.Context, programID, beneficiaryID string, status models.EnrollmentStatus, actor *models.User, meta models.RequestMeta) (*models.ProgramEnrollment, error) {
	if status != models.EnrollmentCompleted && status != models.EnrollmentWithdrawn {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be completed or withdrawn")
	}

	program, err := s.Get(ctx, programID, actor)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.repo.FindEnrollment(ctx, programID, beneficiaryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	enrollment.Status = status
	if err := s.repo.UpdateEnrollment(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	s.writeAudit(ctx, actor, &program.FoundationID, models.AuditActionProgramEnroll, "program_enrollments", &enrollment.ID,
		fmt.Sprintf("Enrollment for beneficiary %s marked %s", beneficiaryID, status), models.RiskLow, meta)

	return enrollment, nil
}

func (s *ProgramService) writeAudit(ctx context.Context, actor *models.User, foundationID *string, action, entityType string, entityID *string, description, risk string, meta models.RequestMeta) {
	log := &models.AuditLog{
		FoundationID: foundationID,
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		Description:  description,
		RiskLevel:    risk,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	}
	if actor != nil {
		log.ActorID = &actor.ID
		log.ActorEmail = actor.Email
		log.ActorRole = string(actor.Role)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record program audit log", zap.Error(err))
	}
}
