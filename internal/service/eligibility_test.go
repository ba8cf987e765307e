package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconaid/foundation-api/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func fixedEvaluator(now time.Time) *EligibilityEvaluator {
	e := NewEligibilityEvaluator(nil)
	e.now = func() time.Time { return now }
	return e
}

func completeProfile() *models.Profile {
	dob := time.Date(2010, time.March, 15, 0, 0, 0, 0, time.UTC)
	return &models.Profile{
		DateOfBirth:          &dob,
		Gender:               "female",
		CurrentAcademicLevel: "jss_2",
		CurrentSchool:        "Sunrise College",
		SchoolType:           "private",
		LastGradePercentage:  floatPtr(72),
	}
}

func scholarshipConfig() *models.SupportConfiguration {
	return &models.SupportConfiguration{
		ID:           "cfg-1",
		FoundationID: "fnd-1",
		SupportType:  "scholarship",
		DisplayName:  "Scholarship",
		EligibilityRules: models.EligibilityRules{
			MinAcademicLevel: "primary_4",
			MaxAcademicLevel: "sss_3",
		},
		AmountConfig: models.AmountTiers{
			{
				AcademicLevel: "jss",
				MinAmount:     20000,
				MaxAmount:     60000,
				DefaultAmount: 35000,
				Currency:      "NGN",
				Frequency:     models.FrequencyTermly,
				SchoolTypeMultipliers: map[string]float64{
					"private": 1.25,
				},
			},
			{
				AcademicLevel: "all",
				MinAmount:     10000,
				MaxAmount:     30000,
				DefaultAmount: 15000,
				Currency:      "NGN",
				Frequency:     models.FrequencyOnce,
			},
		},
		Active: true,
	}
}

func TestCheckEligibilityNoProfileLocks(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	result := e.CheckEligibility(scholarshipConfig(), &models.User{ID: "u-1"})
	assert.False(t, result.IsEligible)
	assert.True(t, result.IsLocked)
	assert.Equal(t, []string{"Profile not set up"}, result.Reasons)
	assert.Equal(t, []string{"Complete profile setup"}, result.MissingRequirements)
}

func TestCheckEligibilityIncompleteProfileListsAllMissingFields(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	user := &models.User{ID: "u-1", Profile: &models.Profile{Gender: "male"}}

	result := e.CheckEligibility(scholarshipConfig(), user)
	assert.True(t, result.IsLocked)
	assert.False(t, result.IsEligible)
	assert.Equal(t, []string{"Date of birth", "Current academic level", "Current school"}, result.MissingRequirements)
}

func TestCheckEligibilityAccumulatesAllViolations(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	cfg := scholarshipConfig()
	cfg.EligibilityRules = models.EligibilityRules{
		MinAcademicLevel:  "sss_1",
		MinAge:            intPtr(18),
		GenderRestriction: "male",
		RequiresMinGrade:  floatPtr(80),
	}

	user := &models.User{ID: "u-1", Profile: completeProfile()}

	result := e.CheckEligibility(cfg, user)
	assert.False(t, result.IsEligible)
	assert.False(t, result.IsLocked)
	require.Len(t, result.Reasons, 4)
	assert.Contains(t, result.Reasons, "Requires academic level sss_1 or above")
	assert.Contains(t, result.Reasons, "Minimum age is 18")
	assert.Contains(t, result.Reasons, "Restricted to male applicants")
	assert.Contains(t, result.Reasons, "Requires a minimum grade of 80%")
}

func TestCheckEligibilityAgeCountsBirthday(t *testing.T) {
	cfg := scholarshipConfig()
	cfg.EligibilityRules = models.EligibilityRules{MinAge: intPtr(18)}

	profile := completeProfile()
	profile.DateOfBirth = timePtr(time.Date(2008, time.June, 2, 0, 0, 0, 0, time.UTC))
	user := &models.User{ID: "u-1", Profile: profile}

	// Day before the 18th birthday: still 17.
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	result := e.CheckEligibility(cfg, user)
	assert.False(t, result.IsEligible)
	assert.Contains(t, result.Reasons, "Minimum age is 18")

	// On the birthday: 18.
	e = fixedEvaluator(time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC))
	result = e.CheckEligibility(cfg, user)
	assert.True(t, result.IsEligible)
}

func TestCheckEligibilityUnknownLevelIsExplicit(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	profile := completeProfile()
	profile.CurrentAcademicLevel = "kindergarten_9"
	user := &models.User{ID: "u-1", Profile: profile}

	result := e.CheckEligibility(scholarshipConfig(), user)
	assert.False(t, result.IsEligible)
	assert.False(t, result.IsLocked)
	assert.Equal(t, []string{`Unrecognized academic level "kindergarten_9"`}, result.Reasons)
}

func TestCheckEligibilityMinGradeWithoutRecordIsMissingNotFailing(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	cfg := scholarshipConfig()
	cfg.EligibilityRules = models.EligibilityRules{RequiresMinGrade: floatPtr(60)}

	profile := completeProfile()
	profile.LastGradePercentage = nil
	user := &models.User{ID: "u-1", Profile: profile}

	result := e.CheckEligibility(cfg, user)
	assert.True(t, result.IsEligible)
	assert.Equal(t, []string{"Academic performance record"}, result.MissingRequirements)
}

func TestCheckEligibilitySchoolTypeRestriction(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	cfg := scholarshipConfig()
	cfg.EligibilityRules = models.EligibilityRules{SchoolTypeRestriction: []string{"public"}}

	user := &models.User{ID: "u-1", Profile: completeProfile()}

	result := e.CheckEligibility(cfg, user)
	assert.False(t, result.IsEligible)
	assert.Equal(t, []string{"Not open to private schools"}, result.Reasons)
}

func TestCalculateAmountMatchesLevelGroupAndMultiplier(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	amount := e.CalculateAmount(scholarshipConfig(), "jss_2", completeProfile())
	assert.Equal(t, 25000.0, amount.Min)
	assert.Equal(t, 75000.0, amount.Max)
	assert.Equal(t, 43750.0, amount.Default)
	assert.Equal(t, "NGN", amount.Currency)
	assert.Equal(t, models.FrequencyTermly, amount.Frequency)
}

func TestCalculateAmountFallsBackToWildcard(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	profile := completeProfile()
	profile.SchoolType = "public"
	amount := e.CalculateAmount(scholarshipConfig(), "university_3", profile)
	assert.Equal(t, 15000.0, amount.Default)
	assert.Equal(t, models.FrequencyOnce, amount.Frequency)
}

func TestCalculateAmountNoTierReturnsZeroDefaults(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	cfg := scholarshipConfig()
	cfg.AmountConfig = models.AmountTiers{
		{AcademicLevel: "primary", DefaultAmount: 10000, Currency: "NGN", Frequency: models.FrequencyTermly},
	}

	amount := e.CalculateAmount(cfg, "university_1", nil)
	assert.Zero(t, amount.Min)
	assert.Zero(t, amount.Max)
	assert.Zero(t, amount.Default)
	assert.Equal(t, "NGN", amount.Currency)
	assert.Equal(t, models.FrequencyOnce, amount.Frequency)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	cfg := scholarshipConfig()
	user := &models.User{ID: "u-1", Profile: completeProfile()}

	first, firstAmount, err := e.Evaluate(cfg, user)
	require.NoError(t, err)
	second, secondAmount, err := e.Evaluate(cfg, user)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, firstAmount, secondAmount)
}

func TestEvaluateNilConfigFails(t *testing.T) {
	e := fixedEvaluator(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	_, _, err := e.Evaluate(nil, &models.User{ID: "u-1"})
	assert.Error(t, err)
}

func TestLevelOrdering(t *testing.T) {
	lower, ok := levelIndex("primary_6")
	require.True(t, ok)
	higher, ok := levelIndex("jss_1")
	require.True(t, ok)
	assert.Less(t, lower, higher)

	_, ok = levelIndex("phd_1")
	assert.False(t, ok)
}

func TestLevelGroupUnknownFallsBackToAll(t *testing.T) {
	assert.Equal(t, "jss", levelGroup("jss_3"))
	assert.Equal(t, "university", levelGroup("university_6"))
	assert.Equal(t, "all", levelGroup("homeschool_2"))
	assert.Equal(t, "all", levelGroup(""))
}
