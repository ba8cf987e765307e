package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconaid/foundation-api/internal/models"
)

func supportConfigRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "foundation_id", "support_type", "display_name", "description", "eligibility_rules", "amount_config", "required_documents", "application_settings", "performance_requirements", "priority_weights", "active", "created_at", "updated_at"}).
		AddRow("cfg-1", "fnd-1", "school_fees", "School Fees", "",
			[]byte(`{"min_academic_level":"primary_1"}`),
			[]byte(`[{"academic_level":"all","min_amount":5000,"max_amount":20000,"default_amount":10000,"currency":"NGN","frequency":"termly"}]`),
			[]byte(`["school_invoice"]`),
			[]byte(`{"accepting_applications":true}`),
			[]byte(`{}`),
			[]byte(`{"financial_need":40}`),
			true, time.Now(), time.Now())
}

func TestSupportConfigRepositoryListByFoundationActiveOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupportConfigRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM support_configurations WHERE foundation_id = $1 AND active = TRUE ORDER BY support_type ASC")).
		WithArgs("fnd-1").
		WillReturnRows(supportConfigRow())

	configs, err := repo.ListByFoundation(context.Background(), "fnd-1", false)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "school_fees", configs[0].SupportType)
	assert.Equal(t, "primary_1", configs[0].EligibilityRules.MinAcademicLevel)
	require.Len(t, configs[0].AmountConfig, 1)
	assert.Equal(t, models.FrequencyTermly, configs[0].AmountConfig[0].Frequency)
	assert.True(t, configs[0].ApplicationSettings.AcceptingApplications)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportConfigRepositoryListByFoundationIncludeInactive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupportConfigRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM support_configurations WHERE foundation_id = $1 ORDER BY support_type ASC")).
		WithArgs("fnd-1").
		WillReturnRows(supportConfigRow())

	_, err := repo.ListByFoundation(context.Background(), "fnd-1", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportConfigRepositoryFindActiveByTypeNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupportConfigRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE foundation_id = $1 AND support_type = $2 AND active = TRUE LIMIT 1")).
		WithArgs("fnd-1", "uniforms").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByType(context.Background(), "fnd-1", "uniforms")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportConfigRepositoryCreateSetsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupportConfigRepository(db)

	mock.ExpectExec("INSERT INTO support_configurations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	cfg := &models.SupportConfiguration{
		FoundationID: "fnd-1",
		SupportType:  "books_and_supplies",
		DisplayName:  "Books & Supplies",
		AmountConfig: models.AmountTiers{
			{AcademicLevel: "all", DefaultAmount: 10000, Currency: "NGN", Frequency: models.FrequencyTermly},
		},
		Active: true,
	}
	require.NoError(t, repo.Create(context.Background(), cfg))
	assert.NotEmpty(t, cfg.ID)
	assert.False(t, cfg.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportConfigRepositoryReactivateAllCountsRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupportConfigRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE support_configurations SET active = TRUE, updated_at = $2 WHERE foundation_id = $1 AND active = FALSE")).
		WithArgs("fnd-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := repo.ReactivateAll(context.Background(), "fnd-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
