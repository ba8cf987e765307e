package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type supportConfigRepository interface {
	ListByFoundation(ctx context.Context, foundationID string, includeInactive bool) ([]models.SupportConfiguration, error)
	FindByID(ctx context.Context, id string) (*models.SupportConfiguration, error)
	FindActiveByType(ctx context.Context, foundationID, supportType string) (*models.SupportConfiguration, error)
	Create(ctx context.Context, cfg *models.SupportConfiguration) error
	Update(ctx context.Context, cfg *models.SupportConfiguration) error
	SetActive(ctx context.Context, id string, active bool) error
	ReactivateAll(ctx context.Context, foundationID string) (int, error)
}

type supportUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateSupportConfigRequest is the payload for creating a configuration.
type CreateSupportConfigRequest struct {
	SupportType             string                         `json:"support_type" validate:"required"`
	DisplayName             string                         `json:"display_name" validate:"required"`
	Description             string                         `json:"description"`
	EligibilityRules        models.EligibilityRules        `json:"eligibility_rules"`
	AmountConfig            models.AmountTiers             `json:"amount_config" validate:"required,min=1,dive"`
	RequiredDocuments       models.StringList              `json:"required_documents"`
	ApplicationSettings     models.ApplicationSettings     `json:"application_settings"`
	PerformanceRequirements models.PerformanceRequirements `json:"performance_requirements"`
	PriorityWeights         models.PriorityWeights         `json:"priority_weights"`
}

// UpdateSupportConfigRequest is a partial patch; nil fields are left as-is.
type UpdateSupportConfigRequest struct {
	DisplayName             *string                         `json:"display_name,omitempty"`
	Description             *string                         `json:"description,omitempty"`
	EligibilityRules        *models.EligibilityRules        `json:"eligibility_rules,omitempty"`
	AmountConfig            *models.AmountTiers             `json:"amount_config,omitempty"`
	RequiredDocuments       *models.StringList              `json:"required_documents,omitempty"`
	ApplicationSettings     *models.ApplicationSettings     `json:"application_settings,omitempty"`
	PerformanceRequirements *models.PerformanceRequirements `json:"performance_requirements,omitempty"`
	PriorityWeights         *models.PriorityWeights         `json:"priority_weights,omitempty"`
}

// SupportConfigService manages support program configurations and their
// per-beneficiary evaluation.
type SupportConfigService struct {
	repo      supportConfigRepository
	users     supportUserReader
	audit     auditWriter
	cache     *CacheService
	evaluator *EligibilityEvaluator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSupportConfigService constructs the service. cache may be nil.
func NewSupportConfigService(repo supportConfigRepository, users supportUserReader, audit auditWriter, cache *CacheService, evaluator *EligibilityEvaluator, validate *validator.Validate, logger *zap.Logger) *SupportConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if evaluator == nil {
		evaluator = NewEligibilityEvaluator(nil)
	}
	return &SupportConfigService{repo: repo, users: users, audit: audit, cache: cache, evaluator: evaluator, validator: validate, logger: logger}
}

func supportCacheKey(foundationID string) string {
	return fmt.Sprintf("support_configs:%s:active", foundationID)
}

// List returns configurations for a foundation.
func (s *SupportConfigService) List(ctx context.Context, foundationID string, includeInactive bool) ([]models.SupportConfiguration, error) {
	configs, err := s.repo.ListByFoundation(ctx, foundationID, includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list support configurations")
	}
	return configs, nil
}

// Get returns one configuration by id, provided the actor may see it.
func (s *SupportConfigService) Get(ctx context.Context, id string, actor *models.User) (*models.SupportConfiguration, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "support configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support configuration")
	}
	if err := ensureFoundation(actor, cfg.FoundationID); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Create adds a new configuration. At most one active configuration may exist
// per (foundation, support type).
func (s *SupportConfigService) Create(ctx context.Context, foundationID string, req CreateSupportConfigRequest, actor *models.User, meta models.RequestMeta) (*models.SupportConfiguration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid support configuration payload")
	}

	if _, err := s.repo.FindActiveByType(ctx, foundationID, req.SupportType); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("an active %s configuration already exists", req.SupportType))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check support type uniqueness")
	}

	cfg := &models.SupportConfiguration{
		FoundationID:            foundationID,
		SupportType:             req.SupportType,
		DisplayName:             req.DisplayName,
		Description:             req.Description,
		EligibilityRules:        req.EligibilityRules,
		AmountConfig:            req.AmountConfig,
		RequiredDocuments:       req.RequiredDocuments,
		ApplicationSettings:     req.ApplicationSettings,
		PerformanceRequirements: req.PerformanceRequirements,
		PriorityWeights:         req.PriorityWeights,
		Active:                  true,
	}

	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create support configuration")
	}

	s.invalidateCache(ctx, foundationID)
	s.writeAudit(ctx, actor, &foundationID, models.AuditActionSupportCreate, "support_configurations", &cfg.ID,
		fmt.Sprintf("Created %s configuration", cfg.SupportType), models.RiskMedium, meta)

	return cfg, nil
}

// Update applies a partial patch to an existing configuration.
func (s *SupportConfigService) Update(ctx context.Context, id string, req UpdateSupportConfigRequest, actor *models.User, meta models.RequestMeta) (*models.SupportConfiguration, error) {
	cfg, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		cfg.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		cfg.Description = *req.Description
	}
	if req.EligibilityRules != nil {
		cfg.EligibilityRules = *req.EligibilityRules
	}
	if req.AmountConfig != nil {
		if len(*req.AmountConfig) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "amount config requires at least one tier")
		}
		cfg.AmountConfig = *req.AmountConfig
	}
	if req.RequiredDocuments != nil {
		cfg.RequiredDocuments = *req.RequiredDocuments
	}
	if req.ApplicationSettings != nil {
		cfg.ApplicationSettings = *req.ApplicationSettings
	}
	if req.PerformanceRequirements != nil {
		cfg.PerformanceRequirements = *req.PerformanceRequirements
	}
	if req.PriorityWeights != nil {
		cfg.PriorityWeights = *req.PriorityWeights
	}

	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update support configuration")
	}

	s.invalidateCache(ctx, cfg.FoundationID)
	s.writeAudit(ctx, actor, &cfg.FoundationID, models.AuditActionSupportUpdate, "support_configurations", &cfg.ID,
		fmt.Sprintf("Updated %s configuration", cfg.SupportType), models.RiskMedium, meta)

	return cfg, nil
}

// Deactivate soft-removes a configuration. The row stays behind and can be
// restored through ReactivateAll.
func (s *SupportConfigService) Deactivate(ctx context.Context, id string, actor *models.User, meta models.RequestMeta) error {
	cfg, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate support configuration")
	}

	s.invalidateCache(ctx, cfg.FoundationID)
	s.writeAudit(ctx, actor, &cfg.FoundationID, models.AuditActionSupportDeactivate, "support_configurations", &cfg.ID,
		fmt.Sprintf("Deactivated %s configuration", cfg.SupportType), models.RiskHigh, meta)

	return nil
}

// ReactivateAll restores every inactive configuration for a foundation and
// returns the number of rows affected.
func (s *SupportConfigService) ReactivateAll(ctx context.Context, foundationID string, actor *models.User, meta models.RequestMeta) (int, error) {
	count, err := s.repo.ReactivateAll(ctx, foundationID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate support configurations")
	}

	s.invalidateCache(ctx, foundationID)
	s.writeAudit(ctx, actor, &foundationID, models.AuditActionSupportReactivate, "support_configurations", nil,
		fmt.Sprintf("Reactivated %d configurations", count), models.RiskMedium, meta)

	return count, nil
}

// SeedDefaults creates the standard configuration set for a foundation,
// skipping support types that already have an active configuration. It
// returns the created configurations.
func (s *SupportConfigService) SeedDefaults(ctx context.Context, foundationID string, actor *models.User, meta models.RequestMeta) ([]models.SupportConfiguration, error) {
	created := make([]models.SupportConfiguration, 0, len(defaultSupportConfigs))
	for _, template := range defaultSupportConfigs {
		if _, err := s.repo.FindActiveByType(ctx, foundationID, template.SupportType); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing configurations")
		}

		cfg := template
		cfg.FoundationID = foundationID
		cfg.Active = true
		if err := s.repo.Create(ctx, &cfg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed support configuration")
		}
		created = append(created, cfg)
	}

	s.invalidateCache(ctx, foundationID)
	s.writeAudit(ctx, actor, &foundationID, models.AuditActionSupportSeed, "support_configurations", nil,
		fmt.Sprintf("Seeded %d default configurations", len(created)), models.RiskMedium, meta)

	return created, nil
}

// ListForBeneficiary returns the foundation's active configurations annotated
// with the beneficiary's eligibility and estimated amount. Results are
// recomputed on every call; only the raw configuration list is cached.
func (s *SupportConfigService) ListForBeneficiary(ctx context.Context, foundationID, userID string) ([]models.EvaluatedSupportConfiguration, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	configs, err := s.activeConfigs(ctx, foundationID)
	if err != nil {
		return nil, err
	}

	evaluated := make([]models.EvaluatedSupportConfiguration, 0, len(configs))
	for i := range configs {
		eligibility, amount, err := s.evaluator.Evaluate(&configs[i], user)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate configuration")
		}
		evaluated = append(evaluated, models.EvaluatedSupportConfiguration{
			SupportConfiguration: configs[i],
			Eligibility:          eligibility,
			EstimatedAmount:      amount,
		})
	}

	return evaluated, nil
}

func (s *SupportConfigService) activeConfigs(ctx context.Context, foundationID string) ([]models.SupportConfiguration, error) {
	key := supportCacheKey(foundationID)

	var cached []models.SupportConfiguration
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	configs, err := s.repo.ListByFoundation(ctx, foundationID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list support configurations")
	}

	_ = s.cache.Set(ctx, key, configs, 0)
	return configs, nil
}

func (s *SupportConfigService) invalidateCache(ctx context.Context, foundationID string) {
	_ = s.cache.Invalidate(ctx, supportCacheKey(foundationID))
}

func (s *SupportConfigService) writeAudit(ctx context.Context, actor *models.User, foundationID *string, action, entityType string, entityID *string, description, risk string, meta models.RequestMeta) {
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
		s.logger.Warn("failed to record support configuration audit log", zap.Error(err))
	}
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// defaultSupportConfigs is the seed set applied to new foundations.
var defaultSupportConfigs = []models.SupportConfiguration{
	{
		SupportType: "school_fees",
		DisplayName: "School Fees",
		Description: "Covers tuition for the academic session",
		EligibilityRules: models.EligibilityRules{
			MinAcademicLevel: "primary_1",
			MaxAcademicLevel: "university_6",
			RequiresMinGrade: floatPtr(50),
		},
		AmountConfig: models.AmountTiers{
			{AcademicLevel: "primary", MinAmount: 10000, MaxAmount: 50000, DefaultAmount: 25000, Currency: "NGN", Frequency: models.FrequencyTermly, SchoolTypeMultipliers: map[string]float64{"private": 1.5, "public": 1.0}},
			{AcademicLevel: "jss", MinAmount: 15000, MaxAmount: 75000, DefaultAmount: 40000, Currency: "NGN", Frequency: models.FrequencyTermly, SchoolTypeMultipliers: map[string]float64{"private": 1.5, "public": 1.0}},
			{AcademicLevel: "sss", MinAmount: 20000, MaxAmount: 100000, DefaultAmount: 50000, Currency: "NGN", Frequency: models.FrequencyTermly, SchoolTypeMultipliers: map[string]float64{"private": 1.5, "public": 1.0}},
			{AcademicLevel: "university", MinAmount: 50000, MaxAmount: 500000, DefaultAmount: 150000, Currency: "NGN", Frequency: models.FrequencyAnnually},
		},
		RequiredDocuments: models.StringList{"school_invoice", "report_card"},
		ApplicationSettings: models.ApplicationSettings{
			AcceptingApplications: true,
		},
		PerformanceRequirements: models.PerformanceRequirements{
			MinTermAverage: floatPtr(50),
		},
		PriorityWeights: models.PriorityWeights{FinancialNeed: 40, AcademicPerformance: 25, Attendance: 15, Distance: 10, SpecialCircumstance: 10},
	},
	{
		SupportType: "books_and_supplies",
		DisplayName: "Books & Supplies",
		Description: "Textbooks, notebooks and learning materials",
		EligibilityRules: models.EligibilityRules{
			MinAcademicLevel: "nursery_1",
			MaxAcademicLevel: "sss_3",
		},
		AmountConfig: models.AmountTiers{
			{AcademicLevel: "all", MinAmount: 5000, MaxAmount: 25000, DefaultAmount: 10000, Currency: "NGN", Frequency: models.FrequencyTermly},
		},
		RequiredDocuments: models.StringList{"book_list"},
		ApplicationSettings: models.ApplicationSettings{
			AcceptingApplications: true,
		},
		PriorityWeights: models.PriorityWeights{FinancialNeed: 50, AcademicPerformance: 20, Attendance: 15, Distance: 5, SpecialCircumstance: 10},
	},
	{
		SupportType: "uniforms",
		DisplayName: "Uniforms",
		Description: "School uniforms and footwear",
		EligibilityRules: models.EligibilityRules{
			MinAcademicLevel: "nursery_1",
			MaxAcademicLevel: "sss_3",
			MaxAge:           intPtr(20),
		},
		AmountConfig: models.AmountTiers{
			{AcademicLevel: "all", MinAmount: 5000, MaxAmount: 20000, DefaultAmount: 8000, Currency: "NGN", Frequency: models.FrequencyAnnually},
		},
		ApplicationSettings: models.ApplicationSettings{
			AcceptingApplications: true,
		},
		PriorityWeights: models.PriorityWeights{FinancialNeed: 60, AcademicPerformance: 10, Attendance: 10, Distance: 10, SpecialCircumstance: 10},
	},
	{
		SupportType: "exam_fees",
		DisplayName: "Examination Fees",
		Description: "WAEC, NECO and JAMB registration fees",
		EligibilityRules: models.EligibilityRules{
			MinAcademicLevel: "jss_3",
			MaxAcademicLevel: "sss_3",
			RequiresMinGrade: floatPtr(55),
		},
		AmountConfig: models.AmountTiers{
			{AcademicLevel: "jss", MinAmount: 5000, MaxAmount: 30000, DefaultAmount: 15000, Currency: "NGN", Frequency: models.FrequencyOnce},
			{AcademicLevel: "sss", MinAmount: 15000, MaxAmount: 75000, DefaultAmount: 35000, Currency: "NGN", Frequency: models.FrequencyOnce},
		},
		RequiredDocuments: models.StringList{"exam_registration_slip", "report_card"},
		ApplicationSettings: models.ApplicationSettings{
			AcceptingApplications: true,
		},
		PriorityWeights: models.PriorityWeights{FinancialNeed: 35, AcademicPerformance: 35, Attendance: 15, Distance: 5, SpecialCircumstance: 10},
	},
}
