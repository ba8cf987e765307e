package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type foundationRepository interface {
	List(ctx context.Context) ([]models.Foundation, error)
	FindByID(ctx context.Context, id string) (*models.Foundation, error)
	FindBySlug(ctx context.Context, slug string) (*models.Foundation, error)
	Create(ctx context.Context, foundation *models.Foundation) error
	Update(ctx context.Context, foundation *models.Foundation) error
}

// CreateFoundationRequest payload for registering a tenant.
type CreateFoundationRequest struct {
	Name         string `json:"name" validate:"required"`
	Slug         string `json:"slug" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone"`
	Country      string `json:"country"`
}

// UpdateFoundationRequest payload for updating tenant details.
type UpdateFoundationRequest struct {
	Name         string `json:"name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone"`
	Country      string `json:"country"`
	Active       *bool  `json:"active"`
}

// FoundationService manages tenant records.
type FoundationService struct {
	repo      foundationRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFoundationService constructs the service.
func NewFoundationService(repo foundationRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *FoundationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FoundationService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all foundations.
func (s *FoundationService) List(ctx context.Context) ([]models.Foundation, error) {
	foundations, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list foundations")
	}
	return foundations, nil
}

// Get returns one foundation by id.
func (s *FoundationService) Get(ctx context.Context, id string) (*models.Foundation, error) {
	foundation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "foundation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load foundation")
	}
	return foundation, nil
}

// Create registers a new foundation.
func (s *FoundationService) Create(ctx context.Context, req CreateFoundationRequest, actor *models.User, meta models.RequestMeta) (*models.Foundation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid foundation payload")
	}

	slug := strings.ToLower(req.Slug)
	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "slug already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug uniqueness")
	}

	foundation := &models.Foundation{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Slug:         slug,
		ContactEmail: strings.ToLower(req.ContactEmail),
		ContactPhone: req.ContactPhone,
		Country:      req.Country,
		Active:       true,
	}

	if err := s.repo.Create(ctx, foundation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create foundation")
	}

	s.writeAudit(ctx, actor, foundation, models.AuditActionFoundationCreate,
		fmt.Sprintf("Registered foundation %s", foundation.Name), models.RiskHigh, meta)

	return foundation, nil
}

// Update modifies foundation details.
func (s *FoundationService) Update(ctx context.Context, id string, req UpdateFoundationRequest, actor *models.User, meta models.RequestMeta) (*models.Foundation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid foundation payload")
	}

	foundation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	foundation.Name = req.Name
	foundation.ContactEmail = strings.ToLower(req.ContactEmail)
	foundation.ContactPhone = req.ContactPhone
	foundation.Country = req.Country
	if req.Active != nil {
		foundation.Active = *req.Active
	}

	if err := s.repo.Update(ctx, foundation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update foundation")
	}

	s.writeAudit(ctx, actor, foundation, models.AuditActionFoundationUpdate,
		fmt.Sprintf("Updated foundation %s", foundation.Name), models.RiskMedium, meta)

	return foundation, nil
}

func (s *FoundationService) writeAudit(ctx context.Context, actor *models.User, foundation *models.Foundation, action, description, risk string, meta models.RequestMeta) {
	log := &models.AuditLog{
		FoundationID: &foundation.ID,
		Action:       action,
		EntityType:   "foundations",
		EntityID:     &foundation.ID,
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
		s.logger.Warn("failed to record foundation audit log", zap.Error(err))
	}
}
