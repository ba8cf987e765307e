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

type fakeProgramRepo struct {
	programs    map[string]*models.Program
	enrollments []*models.ProgramEnrollment
	updated     []string
}

func newFakeProgramRepo(programs ...*models.Program) *fakeProgramRepo {
	repo := &fakeProgramRepo{programs: map[string]*models.Program{}}
	for _, p := range programs {
		repo.programs[p.ID] = p
	}
	return repo
}

func (f *fakeProgramRepo) ListPrograms(_ context.Context, foundationID string, activeOnly bool) ([]models.Program, error) {
	var out []models.Program
	for _, p := range f.programs {
		if p.FoundationID != foundationID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProgramRepo) FindProgramByID(_ context.Context, id string) (*models.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProgramRepo) CreateProgram(_ context.Context, program *models.Program) error {
	f.programs[program.ID] = program
	return nil
}

func (f *fakeProgramRepo) UpdateProgram(_ context.Context, program *models.Program) error {
	f.programs[program.ID] = program
	f.updated = append(f.updated, program.ID)
	return nil
}

func (f *fakeProgramRepo) ListEnrollments(_ context.Context, programID string) ([]models.ProgramEnrollment, error) {
	var out []models.ProgramEnrollment
	for _, e := range f.enrollments {
		if e.ProgramID == programID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeProgramRepo) FindEnrollment(_ context.Context, programID, beneficiaryID string) (*models.ProgramEnrollment, error) {
	for _, e := range f.enrollments {
		if e.ProgramID == programID && e.BeneficiaryID == beneficiaryID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProgramRepo) CreateEnrollment(_ context.Context, enrollment *models.ProgramEnrollment) error {
	f.enrollments = append(f.enrollments, enrollment)
	return nil
}

func (f *fakeProgramRepo) UpdateEnrollment(_ context.Context, enrollment *models.ProgramEnrollment) error {
	for i, e := range f.enrollments {
		if e.ProgramID == enrollment.ProgramID && e.BeneficiaryID == enrollment.BeneficiaryID {
			f.enrollments[i] = enrollment
		}
	}
	return nil
}

func mentorshipProgram(foundationID string) *models.Program {
	return &models.Program{
		ID:           "prg-1",
		FoundationID: foundationID,
		Name:         "Mentorship",
		Active:       true,
	}
}

func TestCloseProgramDeactivates(t *testing.T) {
	repo := newFakeProgramRepo(mentorshipProgram("fnd-1"))
	audit := &fakeAuditWriter{}
	svc := NewProgramService(repo, &fakeUserReader{}, audit, nil, nil)

	program, err := svc.Close(context.Background(), "prg-1", supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, program.Active)
	assert.Len(t, audit.logs, 1)

	// Closing an already closed program is a no-op.
	again, err := svc.Close(context.Background(), "prg-1", supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, again.Active)
	assert.Len(t, audit.logs, 1)
}

func TestCloseProgramDeniedAcrossFoundations(t *testing.T) {
	repo := newFakeProgramRepo(mentorshipProgram("fnd-2"))
	audit := &fakeAuditWriter{}
	svc := NewProgramService(repo, &fakeUserReader{}, audit, nil, nil)

	_, err := svc.Close(context.Background(), "prg-1", supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.True(t, repo.programs["prg-1"].Active)
	assert.Empty(t, audit.logs)
}

func TestGetProgramCrossesFoundationsForSuperAdminOnly(t *testing.T) {
	repo := newFakeProgramRepo(mentorshipProgram("fnd-2"))
	svc := NewProgramService(repo, &fakeUserReader{}, &fakeAuditWriter{}, nil, nil)

	_, err := svc.Get(context.Background(), "prg-1", supportAdmin())
	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)

	program, err := svc.Get(context.Background(), "prg-1", activeUser(models.RoleSuperAdmin, nil))
	require.NoError(t, err)
	assert.Equal(t, "fnd-2", program.FoundationID)
}

func TestEnrollDeniedAcrossFoundations(t *testing.T) {
	repo := newFakeProgramRepo(mentorshipProgram("fnd-2"))
	beneficiary := activeUser(models.RoleBeneficiary, strPtr("fnd-2"))
	svc := NewProgramService(repo, &fakeUserReader{user: beneficiary}, &fakeAuditWriter{}, nil, nil)

	_, err := svc.Enroll(context.Background(), "prg-1", beneficiary.ID, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.Empty(t, repo.enrollments)
}

func TestEnrollRejectsForeignBeneficiary(t *testing.T) {
	repo := newFakeProgramRepo(mentorshipProgram("fnd-1"))
	beneficiary := activeUser(models.RoleBeneficiary, strPtr("fnd-2"))
	svc := NewProgramService(repo, &fakeUserReader{user: beneficiary}, &fakeAuditWriter{}, nil, nil)

	_, err := svc.Enroll(context.Background(), "prg-1", beneficiary.ID, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.enrollments)
}
