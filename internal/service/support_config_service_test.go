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

type fakeSupportRepo struct {
	configs     []models.SupportConfiguration
	created     []models.SupportConfiguration
	deactivate  []string
	reactivated int
}

func (f *fakeSupportRepo) ListByFoundation(_ context.Context, foundationID string, includeInactive bool) ([]models.SupportConfiguration, error) {
	var out []models.SupportConfiguration
	for _, cfg := range f.configs {
		if cfg.FoundationID != foundationID {
			continue
		}
		if !includeInactive && !cfg.Active {
			continue
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (f *fakeSupportRepo) FindByID(_ context.Context, id string) (*models.SupportConfiguration, error) {
	for i := range f.configs {
		if f.configs[i].ID == id {
			cfg := f.configs[i]
			return &cfg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupportRepo) FindActiveByType(_ context.Context, foundationID, supportType string) (*models.SupportConfiguration, error) {
	for i := range f.configs {
		cfg := f.configs[i]
		if cfg.FoundationID == foundationID && cfg.SupportType == supportType && cfg.Active {
			return &cfg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupportRepo) Create(_ context.Context, cfg *models.SupportConfiguration) error {
	cfg.ID = "cfg-created"
	f.created = append(f.created, *cfg)
	return nil
}

func (f *fakeSupportRepo) Update(_ context.Context, cfg *models.SupportConfiguration) error {
	for i := range f.configs {
		if f.configs[i].ID == cfg.ID {
			f.configs[i] = *cfg
		}
	}
	return nil
}

func (f *fakeSupportRepo) SetActive(_ context.Context, id string, active bool) error {
	if !active {
		f.deactivate = append(f.deactivate, id)
	}
	return nil
}

func (f *fakeSupportRepo) ReactivateAll(_ context.Context, _ string) (int, error) {
	return f.reactivated, nil
}

type fakeUserReader struct {
	user *models.User
}

func (f *fakeUserReader) FindByID(_ context.Context, _ string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

type fakeAuditWriter struct {
	logs []*models.AuditLog
}

func (f *fakeAuditWriter) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func supportAdmin() *models.User {
	return activeUser(models.RoleAdmin, strPtr("fnd-1"))
}

func newSupportService(repo *fakeSupportRepo, users *fakeUserReader, audit *fakeAuditWriter) *SupportConfigService {
	svc := NewSupportConfigService(repo, users, audit, nil, nil, nil, nil)
	svc.evaluator.now = func() time.Time { return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestListForBeneficiaryEvaluatesEveryActiveConfig(t *testing.T) {
	cfg := *scholarshipConfig()
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{cfg}}

	beneficiary := activeUser(models.RoleBeneficiary, strPtr("fnd-1"))
	beneficiary.Profile = completeProfile()
	users := &fakeUserReader{user: beneficiary}

	svc := newSupportService(repo, users, &fakeAuditWriter{})

	evaluated, err := svc.ListForBeneficiary(context.Background(), "fnd-1", beneficiary.ID)
	require.NoError(t, err)
	require.Len(t, evaluated, 1)
	assert.True(t, evaluated[0].Eligibility.IsEligible)
	assert.Equal(t, 43750.0, evaluated[0].EstimatedAmount.Default)
	assert.Equal(t, models.FrequencyTermly, evaluated[0].EstimatedAmount.Frequency)
}

func TestListForBeneficiaryLocksWithoutProfile(t *testing.T) {
	cfg := *scholarshipConfig()
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{cfg}}

	beneficiary := activeUser(models.RoleBeneficiary, strPtr("fnd-1"))
	users := &fakeUserReader{user: beneficiary}

	svc := newSupportService(repo, users, &fakeAuditWriter{})

	evaluated, err := svc.ListForBeneficiary(context.Background(), "fnd-1", beneficiary.ID)
	require.NoError(t, err)
	require.Len(t, evaluated, 1)
	assert.True(t, evaluated[0].Eligibility.IsLocked)
	assert.False(t, evaluated[0].Eligibility.IsEligible)
}

func TestListForBeneficiaryUnknownUser(t *testing.T) {
	svc := newSupportService(&fakeSupportRepo{}, &fakeUserReader{}, &fakeAuditWriter{})

	_, err := svc.ListForBeneficiary(context.Background(), "fnd-1", "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCreateRejectsDuplicateActiveType(t *testing.T) {
	cfg := *scholarshipConfig()
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{cfg}}
	audit := &fakeAuditWriter{}
	svc := newSupportService(repo, &fakeUserReader{}, audit)

	_, err := svc.Create(context.Background(), "fnd-1", CreateSupportConfigRequest{
		SupportType: "scholarship",
		DisplayName: "Scholarship",
		AmountConfig: models.AmountTiers{
			{AcademicLevel: "all", DefaultAmount: 10000, Currency: "NGN", Frequency: models.FrequencyOnce},
		},
	}, supportAdmin(), models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, repo.created)
	assert.Empty(t, audit.logs)
}

func TestCreateWritesAudit(t *testing.T) {
	repo := &fakeSupportRepo{}
	audit := &fakeAuditWriter{}
	svc := newSupportService(repo, &fakeUserReader{}, audit)

	created, err := svc.Create(context.Background(), "fnd-1", CreateSupportConfigRequest{
		SupportType: "transport",
		DisplayName: "Transport Allowance",
		AmountConfig: models.AmountTiers{
			{AcademicLevel: "all", DefaultAmount: 5000, Currency: "NGN", Frequency: models.FrequencyMonthly},
		},
	}, supportAdmin(), models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, created.Active)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSupportCreate, audit.logs[0].Action)
	assert.Equal(t, "10.0.0.1", audit.logs[0].IPAddress)
}

func TestDeactivateIsSoft(t *testing.T) {
	cfg := *scholarshipConfig()
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{cfg}}
	audit := &fakeAuditWriter{}
	svc := newSupportService(repo, &fakeUserReader{}, audit)

	err := svc.Deactivate(context.Background(), cfg.ID, supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.ID}, repo.deactivate)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.RiskHigh, audit.logs[0].RiskLevel)
}

func TestReactivateAllReportsCount(t *testing.T) {
	repo := &fakeSupportRepo{reactivated: 3}
	svc := newSupportService(repo, &fakeUserReader{}, &fakeAuditWriter{})

	count, err := svc.ReactivateAll(context.Background(), "fnd-1", supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSeedDefaultsSkipsExistingTypes(t *testing.T) {
	existing := *scholarshipConfig()
	existing.SupportType = "school_fees"
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{existing}}
	svc := newSupportService(repo, &fakeUserReader{}, &fakeAuditWriter{})

	created, err := svc.SeedDefaults(context.Background(), "fnd-1", supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.Len(t, created, len(defaultSupportConfigs)-1)
	for _, cfg := range created {
		assert.NotEqual(t, "school_fees", cfg.SupportType)
		assert.Equal(t, "fnd-1", cfg.FoundationID)
		assert.True(t, cfg.Active)
	}
}

func TestUpdateDeniedAcrossFoundations(t *testing.T) {
	foreign := *scholarshipConfig()
	foreign.FoundationID = "fnd-2"
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{foreign}}
	audit := &fakeAuditWriter{}
	svc := newSupportService(repo, &fakeUserReader{}, audit)

	name := "Hijacked"
	_, err := svc.Update(context.Background(), foreign.ID, UpdateSupportConfigRequest{DisplayName: &name}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.Equal(t, "Scholarship", repo.configs[0].DisplayName)
	assert.Empty(t, audit.logs)
}

func TestDeactivateDeniedAcrossFoundations(t *testing.T) {
	foreign := *scholarshipConfig()
	foreign.FoundationID = "fnd-2"
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{foreign}}
	audit := &fakeAuditWriter{}
	svc := newSupportService(repo, &fakeUserReader{}, audit)

	err := svc.Deactivate(context.Background(), foreign.ID, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.Empty(t, repo.deactivate)
	assert.Empty(t, audit.logs)
}

func TestGetCrossesFoundationsForSuperAdminOnly(t *testing.T) {
	foreign := *scholarshipConfig()
	foreign.FoundationID = "fnd-2"
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{foreign}}
	svc := newSupportService(repo, &fakeUserReader{}, &fakeAuditWriter{})

	_, err := svc.Get(context.Background(), foreign.ID, supportAdmin())
	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)

	cfg, err := svc.Get(context.Background(), foreign.ID, activeUser(models.RoleSuperAdmin, nil))
	require.NoError(t, err)
	assert.Equal(t, "fnd-2", cfg.FoundationID)
}

func TestListForBeneficiaryBelowMinimumGrade(t *testing.T) {
	cfg := *scholarshipConfig()
	cfg.SupportType = "school_fees"
	minGrade := 50.0
	cfg.EligibilityRules.RequiresMinGrade = &minGrade
	repo := &fakeSupportRepo{configs: []models.SupportConfiguration{cfg}}

	beneficiary := activeUser(models.RoleBeneficiary, strPtr("fnd-1"))
	beneficiary.Profile = completeProfile()
	grade := 45.0
	beneficiary.Profile.LastGradePercentage = &grade
	svc := newSupportService(repo, &fakeUserReader{user: beneficiary}, &fakeAuditWriter{})

	evaluated, err := svc.ListForBeneficiary(context.Background(), "fnd-1", beneficiary.ID)
	require.NoError(t, err)

	require.Len(t, evaluated, 1)
	assert.False(t, evaluated[0].Eligibility.IsLocked)
	assert.False(t, evaluated[0].Eligibility.IsEligible)
	assert.Contains(t, evaluated[0].Eligibility.Reasons, "Requires a minimum grade of 50%")
}
