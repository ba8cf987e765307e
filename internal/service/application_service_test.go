package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type fakeApplicationRepo struct {
	apps      map[string]*models.Application
	openCount int
	created   []*models.Application
	updated   []*models.Application
}

func (f *fakeApplicationRepo) List(_ context.Context, _ models.ApplicationFilter) ([]models.Application, int, error) {
	var out []models.Application
	for _, app := range f.apps {
		out = append(out, *app)
	}
	return out, len(out), nil
}

func (f *fakeApplicationRepo) FindByID(_ context.Context, id string) (*models.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *app
	return &copied, nil
}

func (f *fakeApplicationRepo) CountOpenByApplicantAndType(_ context.Context, _, _ string) (int, error) {
	return f.openCount, nil
}

func (f *fakeApplicationRepo) Create(_ context.Context, app *models.Application) error {
	f.created = append(f.created, app)
	return nil
}

func (f *fakeApplicationRepo) Update(_ context.Context, app *models.Application) error {
	f.updated = append(f.updated, app)
	return nil
}

type fakeConfigReader struct {
	cfg *models.SupportConfiguration
}

func (f *fakeConfigReader) FindActiveByType(_ context.Context, _, _ string) (*models.SupportConfiguration, error) {
	if f.cfg == nil {
		return nil, sql.ErrNoRows
	}
	return f.cfg, nil
}

type fakeNotifier struct {
	kinds []string
}

func (f *fakeNotifier) Notify(_ context.Context, _ string, _ *string, kind, _, _ string) {
	f.kinds = append(f.kinds, kind)
}

func applicant() *models.User {
	user := activeUser(models.RoleBeneficiary, strPtr("fnd-1"))
	user.Profile = completeProfile()
	return user
}

func newApplicationService(repo *fakeApplicationRepo, configs *fakeConfigReader, users *fakeUserReader, notify *fakeNotifier) *ApplicationService {
	return NewApplicationService(repo, configs, users, &fakeAuditWriter{}, nil, notify, nil, nil)
}

func TestSubmitStoresEligibilitySnapshot(t *testing.T) {
	repo := &fakeApplicationRepo{}
	configs := &fakeConfigReader{cfg: scholarshipConfig()}
	configs.cfg.ApplicationSettings.AcceptingApplications = true
	svc := newApplicationService(repo, configs, &fakeUserReader{}, nil)

	app, err := svc.Submit(context.Background(), applicant(), SubmitApplicationRequest{
		SupportType:     "scholarship",
		RequestedAmount: 30000,
	}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.True(t, app.EligibilitySnapshot.IsEligible)
	assert.Equal(t, "fnd-1", app.FoundationID)
	require.Len(t, repo.created, 1)
}

func TestSubmitRejectsWhenNotAccepting(t *testing.T) {
	configs := &fakeConfigReader{cfg: scholarshipConfig()}
	configs.cfg.ApplicationSettings.AcceptingApplications = false
	svc := newApplicationService(&fakeApplicationRepo{}, configs, &fakeUserReader{}, nil)

	_, err := svc.Submit(context.Background(), applicant(), SubmitApplicationRequest{SupportType: "scholarship"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestSubmitRejectsPastDeadline(t *testing.T) {
	configs := &fakeConfigReader{cfg: scholarshipConfig()}
	configs.cfg.ApplicationSettings.AcceptingApplications = true
	configs.cfg.ApplicationSettings.Deadline = timePtr(time.Now().UTC().Add(-time.Hour))
	svc := newApplicationService(&fakeApplicationRepo{}, configs, &fakeUserReader{}, nil)

	_, err := svc.Submit(context.Background(), applicant(), SubmitApplicationRequest{SupportType: "scholarship"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestSubmitRejectsDuplicateOpenApplication(t *testing.T) {
	configs := &fakeConfigReader{cfg: scholarshipConfig()}
	configs.cfg.ApplicationSettings.AcceptingApplications = true
	repo := &fakeApplicationRepo{openCount: 1}
	svc := newApplicationService(repo, configs, &fakeUserReader{}, nil)

	_, err := svc.Submit(context.Background(), applicant(), SubmitApplicationRequest{SupportType: "scholarship"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, repo.created)
}

func TestSubmitUnknownSupportType(t *testing.T) {
	svc := newApplicationService(&fakeApplicationRepo{}, &fakeConfigReader{}, &fakeUserReader{}, nil)

	_, err := svc.Submit(context.Background(), applicant(), SubmitApplicationRequest{SupportType: "helicopter"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAssignReviewerRequiresReviewerRole(t *testing.T) {
	repo := &fakeApplicationRepo{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", FoundationID: "fnd-1", Status: models.ApplicationPending, SupportType: "scholarship"},
	}}
	users := &fakeUserReader{user: activeUser(models.RoleBeneficiary, strPtr("fnd-1"))}
	svc := newApplicationService(repo, &fakeConfigReader{}, users, nil)

	_, err := svc.AssignReviewer(context.Background(), "app-1", "user-1", supportAdmin(), models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.updated)
}

func TestAssignReviewerMovesUnderReview(t *testing.T) {
	repo := &fakeApplicationRepo{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", FoundationID: "fnd-1", Status: models.ApplicationPending, SupportType: "scholarship"},
	}}
	users := &fakeUserReader{user: activeUser(models.RoleReviewer, strPtr("fnd-1"))}
	svc := newApplicationService(repo, &fakeConfigReader{}, users, nil)

	app, err := svc.AssignReviewer(context.Background(), "app-1", "user-1", supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationUnderReview, app.Status)
	require.NotNil(t, app.ReviewerID)
}

func TestDecideApproveRequiresAmount(t *testing.T) {
	repo := &fakeApplicationRepo{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", FoundationID: "fnd-1", Status: models.ApplicationUnderReview, SupportType: "scholarship"},
	}}
	svc := newApplicationService(repo, &fakeConfigReader{}, &fakeUserReader{}, nil)

	_, err := svc.Decide(context.Background(), "app-1", DecideApplicationRequest{Approve: true}, supportAdmin(), models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDecideApproveNotifiesApplicant(t *testing.T) {
	repo := &fakeApplicationRepo{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", FoundationID: "fnd-1", ApplicantID: "ben-1", Status: models.ApplicationUnderReview, SupportType: "scholarship"},
	}}
	notify := &fakeNotifier{}
	svc := newApplicationService(repo, &fakeConfigReader{}, &fakeUserReader{}, notify)

	app, err := svc.Decide(context.Background(), "app-1", DecideApplicationRequest{
		Approve:        true,
		ApprovedAmount: floatPtr(25000),
	}, supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, app.Status)
	require.NotNil(t, app.ApprovedAmount)
	assert.NotNil(t, app.DecidedAt)
	assert.Equal(t, []string{models.NotificationApplicationStatus}, notify.kinds)
}

func TestDecideTwiceConflicts(t *testing.T) {
	repo := &fakeApplicationRepo{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", FoundationID: "fnd-1", Status: models.ApplicationRejected, SupportType: "scholarship"},
	}}
	svc := newApplicationService(repo, &fakeConfigReader{}, &fakeUserReader{}, nil)

	_, err := svc.Decide(context.Background(), "app-1", DecideApplicationRequest{}, supportAdmin(), models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestDecideDeniedAcrossFoundations(t *testing.T) {
	repo := &fakeApplicationRepo{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", FoundationID: "fnd-2", Status: models.ApplicationUnderReview, SupportType: "scholarship"},
	}}
	notify := &fakeNotifier{}
	svc := newApplicationService(repo, &fakeConfigReader{}, &fakeUserReader{}, notify)

	_, err := svc.Decide(context.Background(), "app-1", DecideApplicationRequest{
		Approve:        true,
		ApprovedAmount: floatPtr(25000),
	}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.Equal(t, models.ApplicationUnderReview, repo.apps["app-1"].Status)
	assert.Empty(t, notify.kinds)
}

func TestAssignReviewerDeniedAcrossFoundations(t *testing.T) {
	repo := &fakeApplicationRepo{apps: map[string]*models.Application{
		"app-1": {ID: "app-1", FoundationID: "fnd-2", Status: models.ApplicationPending, SupportType: "scholarship"},
	}}
	users := &fakeUserReader{user: activeUser(models.RoleReviewer, strPtr("fnd-2"))}
	svc := newApplicationService(repo, &fakeConfigReader{}, users, nil)

	_, err := svc.AssignReviewer(context.Background(), "app-1", "user-1", supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.Empty(t, repo.updated)
}
