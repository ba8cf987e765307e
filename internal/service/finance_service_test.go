package service

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconaid/foundation-api/internal/models"
	appErrors "github.com/beaconaid/foundation-api/pkg/errors"
)

type fakeFinanceRepo struct {
	disbursements map[string]*models.Disbursement
	summary       *models.FinanceSummary
	listFilter    models.DisbursementFilter
}

func newFakeFinanceRepo() *fakeFinanceRepo {
	return &fakeFinanceRepo{disbursements: make(map[string]*models.Disbursement)}
}

func (f *fakeFinanceRepo) List(_ context.Context, filter models.DisbursementFilter) ([]models.Disbursement, int, error) {
	f.listFilter = filter
	var out []models.Disbursement
	for _, d := range f.disbursements {
		if filter.FoundationID != nil && d.FoundationID != *filter.FoundationID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (f *fakeFinanceRepo) FindByID(_ context.Context, id string) (*models.Disbursement, error) {
	d, ok := f.disbursements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *d
	return &copied, nil
}

func (f *fakeFinanceRepo) Create(_ context.Context, d *models.Disbursement) error {
	f.disbursements[d.ID] = d
	return nil
}

func (f *fakeFinanceRepo) Update(_ context.Context, d *models.Disbursement) error {
	f.disbursements[d.ID] = d
	return nil
}

func (f *fakeFinanceRepo) Summary(_ context.Context, foundationID string) (*models.FinanceSummary, error) {
	if f.summary == nil {
		return &models.FinanceSummary{FoundationID: foundationID}, nil
	}
	return f.summary, nil
}

func seedDisbursement(repo *fakeFinanceRepo, id string, status models.DisbursementStatus) *models.Disbursement {
	d := &models.Disbursement{
		ID:            id,
		FoundationID:  "fnd-1",
		BeneficiaryID: "ben-1",
		SupportType:   "school_fees",
		Amount:        45000,
		Currency:      "NGN",
		Status:        status,
		Reference:     "REF-" + id,
	}
	repo.disbursements[id] = d
	return d
}

func newFinanceService(repo *fakeFinanceRepo, users *fakeUserReader, audit *fakeAuditWriter, notify *fakeNotifier) *FinanceService {
	return NewFinanceService(repo, users, audit, notify, "", nil, nil)
}

func TestCreateDisbursementForForeignBeneficiary(t *testing.T) {
	repo := newFakeFinanceRepo()
	beneficiary := activeUser(models.RoleBeneficiary, strPtr("fnd-2"))
	beneficiary.ID = "7b0d8a5e-4f4f-4d7e-9f6a-0f6f8b1a2c3d"
	svc := newFinanceService(repo, &fakeUserReader{user: beneficiary}, &fakeAuditWriter{}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), "fnd-1", CreateDisbursementRequest{
		BeneficiaryID: beneficiary.ID,
		SupportType:   "school_fees",
		Amount:        45000,
	}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.disbursements)
}

func TestCreateDisbursementDefaultsCurrency(t *testing.T) {
	repo := newFakeFinanceRepo()
	beneficiary := activeUser(models.RoleBeneficiary, strPtr("fnd-1"))
	beneficiary.ID = "7b0d8a5e-4f4f-4d7e-9f6a-0f6f8b1a2c3d"
	audit := &fakeAuditWriter{}
	svc := newFinanceService(repo, &fakeUserReader{user: beneficiary}, audit, &fakeNotifier{})

	d, err := svc.Create(context.Background(), "fnd-1", CreateDisbursementRequest{
		BeneficiaryID: beneficiary.ID,
		SupportType:   "school_fees",
		Amount:        45000,
	}, supportAdmin(), models.RequestMeta{IP: "10.0.0.4"})
	require.NoError(t, err)

	assert.Equal(t, "NGN", d.Currency)
	assert.Equal(t, models.DisbursementPending, d.Status)
	assert.Nil(t, d.DisbursedAt)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionDisbursement, audit.logs[0].Action)
	assert.Equal(t, models.RiskHigh, audit.logs[0].RiskLevel)
	assert.Equal(t, "10.0.0.4", audit.logs[0].IPAddress)
}

func TestMarkPaidSetsDisbursedAtAndNotifies(t *testing.T) {
	repo := newFakeFinanceRepo()
	seedDisbursement(repo, "dsb-1", models.DisbursementPending)
	audit := &fakeAuditWriter{}
	notify := &fakeNotifier{}
	svc := newFinanceService(repo, &fakeUserReader{}, audit, notify)

	d, err := svc.Mark(context.Background(), "dsb-1", MarkDisbursementRequest{Status: models.DisbursementPaid}, supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, models.DisbursementPaid, d.Status)
	require.NotNil(t, d.DisbursedAt)
	assert.WithinDuration(t, time.Now().UTC(), *d.DisbursedAt, time.Minute)

	assert.Equal(t, []string{models.NotificationDisbursement}, notify.kinds)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionDisbursementMark, audit.logs[0].Action)
	assert.Equal(t, models.RiskCritical, audit.logs[0].RiskLevel)
}

func TestMarkFailedSkipsNotification(t *testing.T) {
	repo := newFakeFinanceRepo()
	seedDisbursement(repo, "dsb-1", models.DisbursementPending)
	notify := &fakeNotifier{}
	svc := newFinanceService(repo, &fakeUserReader{}, &fakeAuditWriter{}, notify)

	d, err := svc.Mark(context.Background(), "dsb-1", MarkDisbursementRequest{Status: models.DisbursementFailed, Note: "bank rejected"}, supportAdmin(), models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, models.DisbursementFailed, d.Status)
	assert.Equal(t, "bank rejected", d.Note)
	assert.Nil(t, d.DisbursedAt)
	assert.Empty(t, notify.kinds)
}

func TestMarkSettledDisbursementConflicts(t *testing.T) {
	repo := newFakeFinanceRepo()
	seedDisbursement(repo, "dsb-1", models.DisbursementPaid)
	svc := newFinanceService(repo, &fakeUserReader{}, &fakeAuditWriter{}, &fakeNotifier{})

	_, err := svc.Mark(context.Background(), "dsb-1", MarkDisbursementRequest{Status: models.DisbursementFailed}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestMarkRejectsUnknownStatus(t *testing.T) {
	repo := newFakeFinanceRepo()
	seedDisbursement(repo, "dsb-1", models.DisbursementPending)
	svc := newFinanceService(repo, &fakeUserReader{}, &fakeAuditWriter{}, &fakeNotifier{})

	_, err := svc.Mark(context.Background(), "dsb-1", MarkDisbursementRequest{Status: "reversed"}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportStatementCSV(t *testing.T) {
	repo := newFakeFinanceRepo()
	d := seedDisbursement(repo, "dsb-1", models.DisbursementPaid)
	paidAt := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)
	d.DisbursedAt = &paidAt
	svc := newFinanceService(repo, &fakeUserReader{}, &fakeAuditWriter{}, &fakeNotifier{})

	content, contentType, err := svc.ExportStatement(context.Background(), models.DisbursementFilter{FoundationID: strPtr("fnd-1")}, "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", contentType)
	body := string(content)
	assert.True(t, strings.HasPrefix(body, "Reference,Beneficiary,Support Type,Amount,Currency,Status,Disbursed At"))
	assert.Contains(t, body, "REF-dsb-1,ben-1,school_fees,45000.00,NGN,paid,2026-05-14")

	// Exports always pull the full statement regardless of caller paging.
	assert.Equal(t, 1, repo.listFilter.Page)
	assert.Equal(t, 10000, repo.listFilter.PageSize)
}

func TestExportStatementPDF(t *testing.T) {
	repo := newFakeFinanceRepo()
	seedDisbursement(repo, "dsb-1", models.DisbursementPending)
	svc := newFinanceService(repo, &fakeUserReader{}, &fakeAuditWriter{}, &fakeNotifier{})

	content, contentType, err := svc.ExportStatement(context.Background(), models.DisbursementFilter{FoundationID: strPtr("fnd-1")}, "pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestExportStatementUnknownFormat(t *testing.T) {
	svc := newFinanceService(newFakeFinanceRepo(), &fakeUserReader{}, &fakeAuditWriter{}, &fakeNotifier{})

	_, _, err := svc.ExportStatement(context.Background(), models.DisbursementFilter{}, "xlsx")

	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFinanceSummaryPassthrough(t *testing.T) {
	repo := newFakeFinanceRepo()
	repo.summary = &models.FinanceSummary{FoundationID: "fnd-1", TotalPaid: 90000, CountPaid: 2}
	svc := newFinanceService(repo, &fakeUserReader{}, &fakeAuditWriter{}, &fakeNotifier{})

	summary, err := svc.Summary(context.Background(), "fnd-1")
	require.NoError(t, err)

	assert.Equal(t, 90000.0, summary.TotalPaid)
	assert.Equal(t, 2, summary.CountPaid)
}

func TestMarkDeniedAcrossFoundations(t *testing.T) {
	repo := newFakeFinanceRepo()
	d := seedDisbursement(repo, "dsb-1", models.DisbursementPending)
	d.FoundationID = "fnd-2"
	audit := &fakeAuditWriter{}
	notify := &fakeNotifier{}
	svc := newFinanceService(repo, &fakeUserReader{}, audit, notify)

	_, err := svc.Mark(context.Background(), "dsb-1", MarkDisbursementRequest{Status: models.DisbursementPaid}, supportAdmin(), models.RequestMeta{})

	assert.ErrorIs(t, err, appErrors.ErrWrongFoundation)
	assert.Equal(t, models.DisbursementPending, repo.disbursements["dsb-1"].Status)
	assert.Empty(t, audit.logs)
	assert.Empty(t, notify.kinds)
}
