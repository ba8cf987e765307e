package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type accessUserRepository interface {
	FindByIdentityKey(ctx context.Context, key string) (*models.User, error)
}

// AccessService is the authorization gate every protected operation runs
// through before touching data. It resolves the authenticated identity to a
// stored user and enforces foundation scoping plus the operation's role
// allow-list. It performs a single read and has no side effects; callers are
// expected to authorize, then mutate, then write the audit record, aborting
// the whole operation if the gate fails.
type AccessService struct {
	repo    accessUserRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAccessService constructs an AccessService. metrics and logger may be nil.
func NewAccessService(repo accessUserRepository, metrics *MetricsService, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{repo: repo, metrics: metrics, logger: logger}
}

// Authorize resolves the acting user and checks, in order: identity present,
// account exists, account active, foundation scope, role allow-list. Each
// check short-circuits with its own error. foundationID nil means the
// operation is foundation-agnostic; super_admin bypasses foundation matching
// entirely and may act across tenants.
func (s *AccessService) Authorize(ctx context.Context, identity *models.Identity, foundationID *string, allowed ...models.UserRole) (*models.User, error) {
	if identity == nil || identity.SubjectKey == "" {
		return nil, s.deny(appErrors.ErrUnauthorized)
	}

	user, err := s.repo.FindByIdentityKey(ctx, identity.SubjectKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.deny(appErrors.ErrUserNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve identity")
	}

	if !user.Active {
		return nil, s.deny(appErrors.ErrAccountDeactivated)
	}

	if user.Role != models.RoleSuperAdmin && foundationID != nil {
		if user.FoundationID == nil || *user.FoundationID != *foundationID {
			return nil, s.deny(appErrors.ErrWrongFoundation)
		}
	}

	if !roleAllowed(user.Role, allowed) {
		return nil, s.deny(appErrors.ErrForbidden)
	}

	return user, nil
}

// ensureFoundation re-checks tenant scope once the target entity is loaded.
// The gate can only compare against the foundation named in the request;
// by-ID operations resolve the real owner afterwards and must call this
// before reading or mutating. A nil actor is an internal caller and passes.
func ensureFoundation(actor *models.User, foundationID string) error {
	if actor == nil || actor.Role == models.RoleSuperAdmin {
		return nil
	}
	if actor.FoundationID == nil || *actor.FoundationID != foundationID {
		return appErrors.Clone(appErrors.ErrWrongFoundation, "resource belongs to a different foundation")
	}
	return nil
}

func (s *AccessService) deny(err *appErrors.Error) error {
	if s.metrics != nil {
		s.metrics.RecordAuthorizationDenied(err.Code)
	}
	return err
}

func roleAllowed(role models.UserRole, allowed []models.UserRole) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}
