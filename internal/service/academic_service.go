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

type academicRepository interface {
	ListSessions(ctx context.Context, foundationID string) ([]models.AcademicSession, error)
	FindSessionByID(ctx context.Context, id string) (*models.AcademicSession, error)
	CreateSession(ctx context.Context, session *models.AcademicSession) error
	UpdateSession(ctx context.Context, session *models.AcademicSession) error
	DeactivateSessions(ctx context.Context, foundationID string) error
	ListPerformance(ctx context.Context, filter models.PerformanceFilter) ([]models.PerformanceRecord, int, error)
	CreatePerformance(ctx context.Context, record *models.PerformanceRecord) error
}

type gradeRecorder interface {
	RecordLatestGrade(ctx context.Context, beneficiaryID string, gradePercentage float64) error
}

// CreateSessionRequest opens a new academic session.
type CreateSessionRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// RecordPerformanceRequest captures a beneficiary's results for one term.
type RecordPerformanceRequest struct {
	BeneficiaryID   string   `json:"beneficiary_id" validate:"required,uuid"`
	SessionID       string   `json:"session_id" validate:"required,uuid"`
	Term            string   `json:"term" validate:"required"`
	AcademicLevel   string   `json:"academic_level" validate:"required"`
	GradePercentage float64  `json:"grade_percentage" validate:"gte=0,lte=100"`
	AttendancePct   *float64 `json:"attendance_pct" validate:"omitempty,gte=0,lte=100"`
	Remarks         string   `json:"remarks"`
}

// AcademicService manages sessions and performance records. Recording a
// performance entry also refreshes the beneficiary's latest grade so the
// eligibility evaluator sees current results.
type AcademicService struct {
	repo      academicRepository
	grades    gradeRecorder
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicService constructs the service.
func NewAcademicService(repo academicRepository, grades gradeRecorder, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *AcademicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{repo: repo, grades: grades, audit: audit, validator: validate, logger: logger}
}

// ListSessions returns all sessions for a foundation, newest first.
func (s *AcademicService) ListSessions(ctx context.Context, foundationID string) ([]models.AcademicSession, error) {
	sessions, err := s.repo.ListSessions(ctx, foundationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic sessions")
	}
	return sessions, nil
}

// CreateSession opens a session and makes it the active one.
func (s *AcademicService) CreateSession(ctx context.Context, foundationID string, req CreateSessionRequest, actor *models.User, meta models.RequestMeta) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}

	// Only one session is active at a time; a new one supersedes the rest.
	if err := s.repo.DeactivateSessions(ctx, foundationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close previous sessions")
	}

	session := &models.AcademicSession{
		ID:           uuid.NewString(),
		FoundationID: foundationID,
		Name:         req.Name,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Active:       true,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic session")
	}

	s.writeAudit(ctx, actor, &foundationID, models.AuditActionSessionCreate, "academic_sessions", &session.ID,
		fmt.Sprintf("Opened academic session %s", session.Name), models.RiskLow, meta)

	return session, nil
}

// CloseSession deactivates one session.
func (s *AcademicService) CloseSession(ctx context.Context, id string, actor *models.User, meta models.RequestMeta) (*models.AcademicSession, error) {
	session, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic session")
	}
	if err := ensureFoundation(actor, session.FoundationID); err != nil {
		return nil, err
	}
	if !session.Active {
		return session, nil
	}

	session.Active = false
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close academic session")
	}

	s.writeAudit(ctx, actor, &session.FoundationID, models.AuditActionSessionClose, "academic_sessions", &session.ID,
		fmt.Sprintf("Closed academic session %s", session.Name), models.RiskLow, meta)

	return session, nil
}

// ListPerformance returns performance records matching the filter.
func (s *AcademicService) ListPerformance(ctx context.Context, filter models.PerformanceFilter) ([]models.PerformanceRecord, *models.Pagination, error) {
	records, total, err := s.repo.ListPerformance(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list performance records")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// RecordPerformance stores a term result and refreshes the beneficiary's
// latest grade percentage.
func (s *AcademicService) RecordPerformance(ctx context.Context, foundationID string, req RecordPerformanceRequest, actor *models.User, meta models.RequestMeta) (*models.PerformanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid performance payload")
	}

	session, err := s.repo.FindSessionByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic session")
	}
	if session.FoundationID != foundationID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session belongs to a different foundation")
	}

	record := &models.PerformanceRecord{
		ID:              uuid.NewString(),
		FoundationID:    foundationID,
		BeneficiaryID:   req.BeneficiaryID,
		SessionID:       req.SessionID,
		Term:            req.Term,
		AcademicLevel:   req.AcademicLevel,
		GradePercentage: req.GradePercentage,
		AttendancePct:   req.AttendancePct,
		Remarks:         req.Remarks,
	}
	if actor != nil {
		record.RecordedBy = actor.ID
	}

	if err := s.repo.CreatePerformance(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record performance")
	}

	if s.grades != nil {
		if err := s.grades.RecordLatestGrade(ctx, req.BeneficiaryID, req.GradePercentage); err != nil {
			s.logger.Warn("failed to refresh beneficiary latest grade",
				zap.String("beneficiary_id", req.BeneficiaryID), zap.Error(err))
		}
	}

	s.writeAudit(ctx, actor, &foundationID, models.AuditActionPerformanceRecord, "performance_records", &record.ID,
		fmt.Sprintf("Recorded %s %s result for beneficiary %s", session.Name, req.Term, req.BeneficiaryID), models.RiskLow, meta)

	return record, nil
}

func (s *AcademicService) writeAudit(ctx context.Context, actor *models.User, foundationID *string, action, entityType string, entityID *string, description, risk string, meta models.RequestMeta) {
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
		s.logger.Warn("failed to record academic audit log", zap.Error(err))
	}
}
