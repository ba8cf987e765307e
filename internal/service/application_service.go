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

type applicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	CountOpenByApplicantAndType(ctx context.Context, applicantID, supportType string) (int, error)
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
}

type applicationConfigReader interface {
	FindActiveByType(ctx context.Context, foundationID, supportType string) (*models.SupportConfiguration, error)
}

type notifier interface {
	Notify(ctx context.Context, userID string, foundationID *string, kind, title, body string)
}

// SubmitApplicationRequest is the applicant intake payload.
type SubmitApplicationRequest struct {
	SupportType     string  `json:"support_type" validate:"required"`
	RequestedAmount float64 `json:"requested_amount" validate:"gte=0"`
}

// DecideApplicationRequest records a reviewer decision.
type DecideApplicationRequest struct {
	Approve        bool     `json:"approve"`
	ApprovedAmount *float64 `json:"approved_amount" validate:"omitempty,gt=0"`
	Note           string   `json:"note"`
}

// ApplicationService drives the applicant intake workflow. The eligibility
// snapshot is computed once at submission time so the record preserves what
// the evaluator saw.
type ApplicationService struct {
	repo      applicationRepository
	configs   applicationConfigReader
	users     supportUserReader
	audit     auditWriter
	evaluator *EligibilityEvaluator
	notify    notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs the service. notify may be nil.
func NewApplicationService(repo applicationRepository, configs applicationConfigReader, users supportUserReader, audit auditWriter, evaluator *EligibilityEvaluator, notify notifier, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if evaluator == nil {
		evaluator = NewEligibilityEvaluator(nil)
	}
	return &ApplicationService{repo: repo, configs: configs, users: users, audit: audit, evaluator: evaluator, notify: notify, validator: validate, logger: logger}
}

// List returns applications matching the filter.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, *models.Pagination, error) {
	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return apps, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one application, provided the actor may see it.
func (s *ApplicationService) Get(ctx context.Context, id string, actor *models.User) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if err := ensureFoundation(actor, app.FoundationID); err != nil {
		return nil, err
	}
	return app, nil
}

// Submit files a new application for the acting beneficiary.
func (s *ApplicationService) Submit(ctx context.Context, actor *models.User, req SubmitApplicationRequest, meta models.RequestMeta) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}
	if actor.FoundationID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "account is not assigned to a foundation")
	}

	cfg, err := s.configs.FindActiveByType(ctx, *actor.FoundationID, req.SupportType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no active %s support is offered", req.SupportType))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support configuration")
	}

	if !cfg.ApplicationSettings.AcceptingApplications {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this support type is not accepting applications")
	}
	if cfg.ApplicationSettings.Deadline != nil && time.Now().UTC().After(*cfg.ApplicationSettings.Deadline) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "the application deadline has passed")
	}

	open, err := s.repo.CountOpenByApplicantAndType(ctx, actor.ID, req.SupportType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing applications")
	}
	if open > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an application for this support type is already open")
	}

	eligibility, _, err := s.evaluator.Evaluate(cfg, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate eligibility")
	}

	now := time.Now().UTC()
	app := &models.Application{
		ID:                  uuid.NewString(),
		FoundationID:        *actor.FoundationID,
		ApplicantID:         actor.ID,
		SupportType:         req.SupportType,
		Status:              models.ApplicationPending,
		EligibilitySnapshot: eligibility,
		RequestedAmount:     req.RequestedAmount,
		SubmittedAt:         now,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit application")
	}

	s.writeAudit(ctx, actor, app, models.AuditActionApplicationSubmit,
		fmt.Sprintf("Submitted %s application", app.SupportType), models.RiskLow, meta)

	return app, nil
}

// AssignReviewer moves an application under review.
func (s *ApplicationService) AssignReviewer(ctx context.Context, id, reviewerID string, actor *models.User, meta models.RequestMeta) (*models.Application, error) {
	app, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationPending && app.Status != models.ApplicationUnderReview {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application has already been decided")
	}

	reviewer, err := s.users.FindByID(ctx, reviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reviewer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewer")
	}
	if reviewer.Role != models.RoleReviewer && reviewer.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee must be a reviewer or admin")
	}

	app.ReviewerID = &reviewer.ID
	app.Status = models.ApplicationUnderReview

	if err := s.repo.Update(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign reviewer")
	}

	s.writeAudit(ctx, actor, app, models.AuditActionApplicationReview,
		fmt.Sprintf("Assigned %s to review %s application", reviewer.Email, app.SupportType), models.RiskLow, meta)

	return app, nil
}

// Decide approves or rejects an application and notifies the applicant.
func (s *ApplicationService) Decide(ctx context.Context, id string, req DecideApplicationRequest, actor *models.User, meta models.RequestMeta) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	app, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if app.Status == models.ApplicationApproved || app.Status == models.ApplicationRejected {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application has already been decided")
	}

	now := time.Now().UTC()
	app.DecisionNote = req.Note
	app.DecidedAt = &now

	var title, body string
	if req.Approve {
		if req.ApprovedAmount == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approved_amount is required when approving")
		}
		app.Status = models.ApplicationApproved
		app.ApprovedAmount = req.ApprovedAmount
		title = "Application approved"
		body = fmt.Sprintf("Your %s application was approved for %.0f.", app.SupportType, *req.ApprovedAmount)
	} else {
		app.Status = models.ApplicationRejected
		title = "Application update"
		body = fmt.Sprintf("Your %s application was not approved.", app.SupportType)
	}

	if err := s.repo.Update(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	s.writeAudit(ctx, actor, app, models.AuditActionApplicationDecide,
		fmt.Sprintf("Application %s marked %s", app.ID, app.Status), models.RiskHigh, meta)

	if s.notify != nil {
		s.notify.Notify(ctx, app.ApplicantID, &app.FoundationID, models.NotificationApplicationStatus, title, body)
	}

	return app, nil
}

func (s *ApplicationService) writeAudit(ctx context.Context, actor *models.User, app *models.Application, action, description, risk string, meta models.RequestMeta) {
	log := &models.AuditLog{
		FoundationID: &app.FoundationID,
		Action:       action,
		EntityType:   "applications",
		EntityID:     &app.ID,
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
		s.logger.Warn("failed to record application audit log", zap.Error(err))
	}
}
