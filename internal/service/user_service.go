package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdateProfile(ctx context.Context, id string, profile *models.Profile) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest represents payload for creating (inviting) users. The
// foundation may be omitted for super_admin accounts, which are the only
// foundation-less role allowed past onboarding.
type CreateUserRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	FullName     string          `json:"full_name" validate:"required"`
	Role         models.UserRole `json:"role" validate:"required,oneof=super_admin admin reviewer beneficiary guardian"`
	FoundationID *string         `json:"foundation_id"`
	Password     string          `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	FullName     string          `json:"full_name" validate:"required"`
	Role         models.UserRole `json:"role" validate:"required,oneof=super_admin admin reviewer beneficiary guardian"`
	FoundationID *string         `json:"foundation_id"`
}

// CompleteProfileRequest fills in the beneficiary profile after onboarding.
type CompleteProfileRequest struct {
	DateOfBirth          *time.Time `json:"date_of_birth" validate:"required"`
	Gender               string     `json:"gender" validate:"required,oneof=male female"`
	Address              string     `json:"address"`
	CurrentAcademicLevel string     `json:"current_academic_level" validate:"required"`
	CurrentSchool        string     `json:"current_school" validate:"required"`
	SchoolType           string     `json:"school_type" validate:"omitempty,oneof=public private"`
	GuardianName         string     `json:"guardian_name"`
	GuardianPhone        string     `json:"guardian_phone"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a user by ID. Non-super_admin actors only see accounts of
// their own foundation, plus themselves; accounts not yet assigned to a
// foundation are visible to super_admins alone.
func (s *UserService) Get(ctx context.Context, id string, actor *models.User) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if actor != nil && actor.ID != user.ID {
		if user.FoundationID == nil {
			if actor.Role != models.RoleSuperAdmin {
				return nil, appErrors.Clone(appErrors.ErrWrongFoundation, "account is not assigned to your foundation")
			}
		} else if err := ensureFoundation(actor, *user.FoundationID); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Create adds a new user account. Non-super_admin roles require a foundation.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actor *models.User, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	if req.Role != models.RoleSuperAdmin && req.FoundationID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "foundation_id is required for this role")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		IdentityKey:  uuid.NewString(),
		Email:        strings.ToLower(req.Email),
		FullName:     req.FullName,
		Role:         req.Role,
		FoundationID: req.FoundationID,
		Active:       true,
		PasswordHash: string(passwordHash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.writeAudit(ctx, actor, user.FoundationID, models.AuditActionUserCreate, &user.ID,
		fmt.Sprintf("Created %s account for %s", user.Role, user.Email), models.RiskMedium, meta)

	return user, nil
}

// Update modifies user attributes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actor *models.User, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	roleChanged := user.Role != req.Role

	user.FullName = req.FullName
	user.Role = req.Role
	if req.FoundationID != nil {
		// Re-homing an account into another tenant is reserved for
		// super_admins, matching the Create guard.
		if actor != nil && actor.Role != models.RoleSuperAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only super admins may change a user's foundation")
		}
		user.FoundationID = req.FoundationID
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	risk := models.RiskLow
	if roleChanged {
		risk = models.RiskHigh
	}
	s.writeAudit(ctx, actor, user.FoundationID, models.AuditActionUserUpdate, &user.ID,
		fmt.Sprintf("Updated account %s", user.Email), risk, meta)

	return user, nil
}

// Deactivate performs a soft delete on a user. Accounts are never removed.
func (s *UserService) Deactivate(ctx context.Context, id string, actor *models.User, meta models.RequestMeta) error {
	user, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}

	s.writeAudit(ctx, actor, user.FoundationID, models.AuditActionUserDeactivate, &user.ID,
		fmt.Sprintf("Deactivated account %s", user.Email), models.RiskHigh, meta)

	return nil
}

// Reactivate restores a previously deactivated user.
func (s *UserService) Reactivate(ctx context.Context, id string, actor *models.User, meta models.RequestMeta) error {
	user, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate user")
	}

	s.writeAudit(ctx, actor, user.FoundationID, models.AuditActionUserReactivate, &user.ID,
		fmt.Sprintf("Reactivated account %s", user.Email), models.RiskMedium, meta)

	return nil
}

// CompleteProfile stores the beneficiary profile. Eligibility stays locked
// until the mandatory fields here are present.
func (s *UserService) CompleteProfile(ctx context.Context, actor *models.User, req CompleteProfileRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile := &models.Profile{
		DateOfBirth:          req.DateOfBirth,
		Gender:               req.Gender,
		Address:              req.Address,
		CurrentAcademicLevel: req.CurrentAcademicLevel,
		CurrentSchool:        req.CurrentSchool,
		SchoolType:           req.SchoolType,
		GuardianName:         req.GuardianName,
		GuardianPhone:        req.GuardianPhone,
	}
	if actor.Profile != nil {
		profile.LastGradePercentage = actor.Profile.LastGradePercentage
	}

	if err := s.repo.UpdateProfile(ctx, actor.ID, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}

	actor.Profile = profile
	s.writeAudit(ctx, actor, actor.FoundationID, models.AuditActionProfileComplete, &actor.ID,
		"Completed beneficiary profile", models.RiskLow, meta)

	return actor, nil
}

// RecordLatestGrade updates the grade percentage the eligibility evaluator
// reads from the profile. Called by the academic module when a new
// performance record lands.
func (s *UserService) RecordLatestGrade(ctx context.Context, beneficiaryID string, gradePercentage float64) error {
	user, err := s.Get(ctx, beneficiaryID, nil)
	if err != nil {
		return err
	}
	if user.Profile == nil {
		// No profile yet: the grade will be picked up once the profile
		// is completed via the performance history.
		return nil
	}
	user.Profile.LastGradePercentage = &gradePercentage
	if err := s.repo.UpdateProfile(ctx, user.ID, user.Profile); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile grade")
	}
	return nil
}

func (s *UserService) writeAudit(ctx context.Context, actor *models.User, foundationID *string, action string, entityID *string, description, risk string, meta models.RequestMeta) {
	log := &models.AuditLog{
		FoundationID: foundationID,
		Action:       action,
		EntityType:   "users",
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
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record user audit log", zap.Error(err))
	}
}
