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

type fakeAcademicRepo struct {
	sessions    map[string]*models.AcademicSession
	records     []*models.PerformanceRecord
	deactivated []string
}

func newFakeAcademicRepo() *fakeAcademicRepo {
	return &fakeAcademicRepo{sessions: make(map[string]*models.AcademicSession)}
}

func (f *fakeAcademicRepo) ListSessions(_ context.Context, foundationID string) ([]models.AcademicSession, error) {
	var out []models.AcademicSession
	for _, s := range f.sessions {
		if s.FoundationID == foundationID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeAcademicRepo) FindSessionByID(_ context.Context, id string) (*models.AcademicSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeAcademicRepo) CreateSession(_ context.Context, session *models.AcademicSession) error {
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeAcademicRepo) UpdateSession(_ context.Context, session *models.AcademicSession) error {
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeAcademicRepo) DeactivateSessions(_ context.Context, foundationID string) error {
	f.deactivated = append(f.deactivated, foundationID)
	for _, s := range f.sessions {
		if s.FoundationID == foundationID {
			s.Active = false
		}
	}
	return nil
}

func (f *fakeAcademicRepo) ListPerformance(_ context.Context, filter models.PerformanceFilter) ([]models.PerformanceRecord, int, error) {
	var out []models.PerformanceRecord
	for _, r := range f.records {
		if filter.BeneficiaryID != nil && r.BeneficiaryID != *filter.BeneficiaryID {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeAcademicRepo) CreatePerformance(_ context.Context, record *models.PerformanceRecord) error {
	f.records = append(f.records, record)
	return nil
}

type fakeGradeRecorder struct {
	beneficiaryID string
	grade         float64
	calls         int
}

func (f *fakeGradeRecorder) RecordLatestGrade(_ context.Context, beneficiaryID string, gradePercentage float64) error {
	f.beneficiaryID = beneficiaryID
	f.grade = gradePercentage
	f.calls++
	return nil
}

func seedSession(repo *fakeAcademicRepo, id, foundationID string, active bool) *models.AcademicSession {
	session := &models.AcademicSession{
		ID:           id,
		FoundationID: foundationID,
		Name:         "2025/2026",
		StartDate:    time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		Active:       active,
	}
	repo.sessions[id] = session
	return session
}

func TestCreateSessionSupersedesActiveOne(t *testing.T) {
	repo := newFakeAcademicRepo()
	seedSession(repo, "sess-old", "fnd-1", true)
	svc := NewAcademicService(repo, nil, &fakeAuditWriter{}, nil, nil)

	session, err := svc.CreateSession(context.Background(), "fnd-1", CreateSessionRequest{
		Name:      "2026/2027",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 7, 31, 0, 0, 0, 0, time.UTC),
	}, supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)

	assert.True(t, session.Active)
	assert.Equal(t, "fnd-1", session.FoundationID)
	assert.False(t, repo.sessions["sess-old"].Active)
	assert.Equal(t, []string{"fnd-1"}, repo.deactivated)
}

func TestCreateSessionRejectsInvertedDates(t *testing.T) {
	repo := newFakeAcademicRepo()
	svc := NewAcademicService(repo, nil, &fakeAuditWriter{}, nil, nil)

	_, err := svc.CreateSession(context.Background(), "fnd-1", CreateSessionRequest{
		Name:      "backwards",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.deactivated)
}

func TestCloseSessionIsIdempotent(t *testing.T) {
	repo := newFakeAcademicRepo()
	seedSession(repo, "sess-1", "fnd-1", true)
	audit := &fakeAuditWriter{}
	svc := NewAcademicService(repo, nil, audit, nil, nil)

	session, err := svc.CloseSession(context.Background(), "sess-1", supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, session.Active)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSessionClose, audit.logs[0].Action)

	// Closing again is a no-op and writes no further audit entry.
	again, err := svc.CloseSession(context.Background(), "sess-1", supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, again.Active)
	assert.Len(t, audit.logs, 1)
}

func TestCloseSessionUnknownID(t *testing.T) {
	svc := NewAcademicService(newFakeAcademicRepo(), nil, &fakeAuditWriter{}, nil, nil)

	_, err := svc.CloseSession(context.Background(), "missing", supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRecordPerformanceRejectsMalformedIDs(t *testing.T) {
	repo := newFakeAcademicRepo()
	seedSession(repo, "sess-1", "fnd-1", true)
	grades := &fakeGradeRecorder{}
	svc := NewAcademicService(repo, grades, &fakeAuditWriter{}, nil, nil)

	record, err := svc.RecordPerformance(context.Background(), "fnd-1", RecordPerformanceRequest{
		BeneficiaryID:   "7b0d8a5e-4f4f-4d7e-9f6a-0f6f8b1a2c3d",
		SessionID:       "sess-1",
		Term:            "first",
		AcademicLevel:   "jss_2",
		GradePercentage: 68,
	}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Nil(t, record)
	assert.Zero(t, grades.calls)
}

func TestRecordPerformanceStoresRecord(t *testing.T) {
	repo := newFakeAcademicRepo()
	session := seedSession(repo, "6e9a2f10-90f2-4f1f-bb27-2a6cbb8c1a77", "fnd-1", true)
	grades := &fakeGradeRecorder{}
	audit := &fakeAuditWriter{}
	svc := NewAcademicService(repo, grades, audit, nil, nil)
	actor := supportAdmin()

	record, err := svc.RecordPerformance(context.Background(), "fnd-1", RecordPerformanceRequest{
		BeneficiaryID:   "7b0d8a5e-4f4f-4d7e-9f6a-0f6f8b1a2c3d",
		SessionID:       session.ID,
		Term:            "first",
		AcademicLevel:   "jss_2",
		GradePercentage: 68,
	}, actor, models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, "fnd-1", record.FoundationID)
	assert.Equal(t, actor.ID, record.RecordedBy)
	require.Len(t, repo.records, 1)

	assert.Equal(t, 1, grades.calls)
	assert.Equal(t, "7b0d8a5e-4f4f-4d7e-9f6a-0f6f8b1a2c3d", grades.beneficiaryID)
	assert.Equal(t, 68.0, grades.grade)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPerformanceRecord, audit.logs[0].Action)
}

func TestRecordPerformanceRejectsForeignSession(t *testing.T) {
	repo := newFakeAcademicRepo()
	session := seedSession(repo, "1d2c3b4a-5e6f-4a7b-8c9d-0e1f2a3b4c5d", "fnd-2", true)
	grades := &fakeGradeRecorder{}
	svc := NewAcademicService(repo, grades, &fakeAuditWriter{}, nil, nil)

	_, err := svc.RecordPerformance(context.Background(), "fnd-1", RecordPerformanceRequest{
		BeneficiaryID:   "7b0d8a5e-4f4f-4d7e-9f6a-0f6f8b1a2c3d",
		SessionID:       session.ID,
		Term:            "first",
		AcademicLevel:   "jss_2",
		GradePercentage: 68,
	}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.records)
	assert.Zero(t, grades.calls)
}

func TestListPerformanceDefaultsPagination(t *testing.T) {
	repo := newFakeAcademicRepo()
	repo.records = append(repo.records, &models.PerformanceRecord{ID: "rec-1", BeneficiaryID: "ben-1"})
	svc := NewAcademicService(repo, nil, &fakeAuditWriter{}, nil, nil)

	records, page, err := svc.ListPerformance(context.Background(), models.PerformanceFilter{BeneficiaryID: strPtr("ben-1")})
	require.NoError(t, err)

	assert.Len(t, records, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
}

func TestCloseSessionDeniedAcrossFoundations(t *testing.T) {
	repo := newFakeAcademicRepo()
	seedSession(repo, "sess-1", "fnd-2", true)
	audit := &fakeAuditWriter{}
	svc := NewAcademicService(repo, nil, audit, nil, nil)

	_, err := svc.CloseSession(context.Background(), "sess-1", supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.True(t, repo.sessions["sess-1"].Active)
	assert.Empty(t, audit.logs)
}
