package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type fakeUserRepo struct {
	users   map[string]*models.User
	updated []string
	active  map[string]bool
	logs    []*models.AuditLog
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}, active: map[string]bool{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	f.updated = append(f.updated, user.ID)
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	f.active[id] = active
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id string, profile *models.Profile) error {
	if u, ok := f.users[id]; ok {
		u.Profile = profile
	}
	return nil
}

func (f *fakeUserRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func foreignBeneficiary() *models.User {
	return &models.User{
		ID:           "ben-2",
		IdentityKey:  "subject-2",
		Email:        "ben2@example.com",
		FullName:     "Foreign Beneficiary",
		Role:         models.RoleBeneficiary,
		FoundationID: strPtr("fnd-2"),
		Active:       true,
	}
}

func TestGetUserDeniedAcrossFoundations(t *testing.T) {
	repo := newFakeUserRepo(foreignBeneficiary())
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "ben-2", supportAdmin())

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
}

func TestGetUserAllowsSelfRead(t *testing.T) {
	actor := foreignBeneficiary()
	repo := newFakeUserRepo(actor)
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Get(context.Background(), actor.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, user.ID)
}

func TestGetUnassignedUserVisibleToSuperAdminOnly(t *testing.T) {
	pending := &models.User{ID: "pending-1", Email: "new@example.com", Role: models.RoleAdmin, Active: true}
	repo := newFakeUserRepo(pending)
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "pending-1", supportAdmin())
	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)

	user, err := svc.Get(context.Background(), "pending-1", activeUser(models.RoleSuperAdmin, nil))
	require.NoError(t, err)
	assert.Equal(t, "pending-1", user.ID)
}

func TestUpdateUserDeniedAcrossFoundations(t *testing.T) {
	repo := newFakeUserRepo(foreignBeneficiary())
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Update(context.Background(), "ben-2", UpdateUserRequest{
		FullName: "Renamed",
		Role:     models.RoleBeneficiary,
	}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.Empty(t, repo.updated)
	assert.Equal(t, "Foreign Beneficiary", repo.users["ben-2"].FullName)
}

func TestDeactivateUserDeniedAcrossFoundations(t *testing.T) {
	repo := newFakeUserRepo(foreignBeneficiary())
	svc := NewUserService(repo, nil, nil)

	err := svc.Deactivate(context.Background(), "ben-2", supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.NotContains(t, repo.active, "ben-2")
	assert.Empty(t, repo.logs)
}

func TestUpdateFoundationChangeRequiresSuperAdmin(t *testing.T) {
	local := &models.User{
		ID:           "ben-1",
		Email:        "ben1@example.com",
		FullName:     "Local Beneficiary",
		Role:         models.RoleBeneficiary,
		FoundationID: strPtr("fnd-1"),
		Active:       true,
	}
	repo := newFakeUserRepo(local)
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Update(context.Background(), "ben-1", UpdateUserRequest{
		FullName:     "Local Beneficiary",
		Role:         models.RoleBeneficiary,
		FoundationID: strPtr("fnd-2"),
	}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, repo.updated)
	assert.Equal(t, "fnd-1", *repo.users["ben-1"].FoundationID)
}

func TestUpdateFoundationChangeAllowedForSuperAdmin(t *testing.T) {
	local := &models.User{
		ID:           "ben-1",
		Email:        "ben1@example.com",
		FullName:     "Local Beneficiary",
		Role:         models.RoleBeneficiary,
		FoundationID: strPtr("fnd-1"),
		Active:       true,
	}
	repo := newFakeUserRepo(local)
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Update(context.Background(), "ben-1", UpdateUserRequest{
		FullName:     "Local Beneficiary",
		Role:         models.RoleBeneficiary,
		FoundationID: strPtr("fnd-2"),
	}, activeUser(models.RoleSuperAdmin, nil), models.RequestMeta{})

	require.NoError(t, err)
	assert.Equal(t, "fnd-2", *user.FoundationID)
	assert.Equal(t, []string{"ben-1"}, repo.updated)
}
