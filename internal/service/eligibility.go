package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/beaconaid/foundation-api/internal/models"
)

// academicLevels is the canonical total order of level codes. Comparisons
// between levels use positions in this list.
var academicLevels = []string{
	"nursery_1", "nursery_2",
	"primary_1", "primary_2", "primary_3", "primary_4", "primary_5", "primary_6",
	"jss_1", "jss_2", "jss_3",
	"sss_1", "sss_2", "sss_3",
	"university_1", "university_2", "university_3", "university_4", "university_5", "university_6",
}

// levelGroups are the coarse tiers the amount table is keyed by.
var levelGroups = []string{"nursery", "primary", "jss", "sss", "university"}

// levelIndex returns the position of a level code in the canonical order.
// The second return reports whether the code is recognised at all, so an
// unknown level is an explicit state rather than a magic -1.
func levelIndex(level string) (int, bool) {
	for i, l := range academicLevels {
		if l == level {
			return i, true
		}
	}
	return 0, false
}

// levelGroup maps a specific level code to its coarse group, or "all" when
// the code matches no known group prefix.
func levelGroup(level string) string {
	for _, g := range levelGroups {
		if strings.HasPrefix(level, g) {
			return g
		}
	}
	return "all"
}

// ageAt computes full years between birth and now, counting a year only once
// the birthday has occurred.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// EligibilityEvaluator decides whether a beneficiary qualifies for a support
// configuration and what amount they would receive. It is pure: no I/O, no
// state, results are recomputed on every call so they can never go stale.
type EligibilityEvaluator struct {
	metrics *MetricsService
	now     func() time.Time
}

// NewEligibilityEvaluator constructs an evaluator. metrics may be nil.
func NewEligibilityEvaluator(metrics *MetricsService) *EligibilityEvaluator {
	return &EligibilityEvaluator{metrics: metrics, now: time.Now}
}

// Evaluate runs both the eligibility check and the amount calculation.
// A nil configuration is a caller bug and fails hard.
func (e *EligibilityEvaluator) Evaluate(cfg *models.SupportConfiguration, user *models.User) (models.EligibilityResult, models.AmountResult, error) {
	if cfg == nil {
		return models.EligibilityResult{}, models.AmountResult{}, errors.New("eligibility: support configuration is required")
	}

	eligibility := e.CheckEligibility(cfg, user)

	var level string
	var profile *models.Profile
	if user != nil && user.Profile != nil {
		level = user.Profile.CurrentAcademicLevel
		profile = user.Profile
	}
	amount := e.CalculateAmount(cfg, level, profile)

	if e.metrics != nil {
		e.metrics.RecordEligibilityEvaluation(cfg.SupportType, eligibility.IsEligible, eligibility.IsLocked)
	}

	return eligibility, amount, nil
}

// CheckEligibility applies the configuration's rules to the user profile.
// An incomplete profile locks the result before any rule runs: a user cannot
// be told "ineligible" until there is enough data to judge. Once unlocked,
// every rule is evaluated so the user sees all violations at once.
func (e *EligibilityEvaluator) CheckEligibility(cfg *models.SupportConfiguration, user *models.User) models.EligibilityResult {
	result := models.EligibilityResult{IsEligible: true}

	if user == nil || user.Profile == nil {
		return models.EligibilityResult{
			IsEligible:          false,
			IsLocked:            true,
			Reasons:             []string{"Profile not set up"},
			MissingRequirements: []string{"Complete profile setup"},
		}
	}

	profile := user.Profile
	result.CurrentLevel = profile.CurrentAcademicLevel
	result.RequiredLevel = cfg.EligibilityRules.MinAcademicLevel

	var missing []string
	if profile.DateOfBirth == nil {
		missing = append(missing, "Date of birth")
	}
	if profile.CurrentAcademicLevel == "" {
		missing = append(missing, "Current academic level")
	}
	if profile.CurrentSchool == "" {
		missing = append(missing, "Current school")
	}
	if len(missing) > 0 {
		result.IsEligible = false
		result.IsLocked = true
		result.Reasons = []string{"Profile incomplete"}
		result.MissingRequirements = missing
		return result
	}

	rules := cfg.EligibilityRules

	currentIdx, known := levelIndex(profile.CurrentAcademicLevel)
	if !known {
		result.Reasons = append(result.Reasons, fmt.Sprintf("Unrecognized academic level %q", profile.CurrentAcademicLevel))
	} else {
		if rules.MinAcademicLevel != "" {
			if minIdx, ok := levelIndex(rules.MinAcademicLevel); ok && currentIdx < minIdx {
				result.Reasons = append(result.Reasons, fmt.Sprintf("Requires academic level %s or above", rules.MinAcademicLevel))
			}
		}
		if rules.MaxAcademicLevel != "" {
			if maxIdx, ok := levelIndex(rules.MaxAcademicLevel); ok && currentIdx > maxIdx {
				result.Reasons = append(result.Reasons, fmt.Sprintf("Only open up to academic level %s", rules.MaxAcademicLevel))
			}
		}
	}

	if rules.MinAge != nil || rules.MaxAge != nil {
		age := ageAt(*profile.DateOfBirth, e.now())
		if rules.MinAge != nil && age < *rules.MinAge {
			result.Reasons = append(result.Reasons, fmt.Sprintf("Minimum age is %d", *rules.MinAge))
		}
		if rules.MaxAge != nil && age > *rules.MaxAge {
			result.Reasons = append(result.Reasons, fmt.Sprintf("Maximum age is %d", *rules.MaxAge))
		}
	}

	if rules.GenderRestriction != "" && profile.Gender != rules.GenderRestriction {
		result.Reasons = append(result.Reasons, fmt.Sprintf("Restricted to %s applicants", rules.GenderRestriction))
	}

	if rules.RequiresMinGrade != nil {
		if profile.LastGradePercentage == nil {
			result.MissingRequirements = append(result.MissingRequirements, "Academic performance record")
		} else if *profile.LastGradePercentage < *rules.RequiresMinGrade {
			result.Reasons = append(result.Reasons, fmt.Sprintf("Requires a minimum grade of %.0f%%", *rules.RequiresMinGrade))
		}
	}

	if len(rules.SchoolTypeRestriction) > 0 {
		if profile.SchoolType == "" {
			result.Reasons = append(result.Reasons, "School type not recorded")
		} else if !containsString(rules.SchoolTypeRestriction, profile.SchoolType) {
			result.Reasons = append(result.Reasons, fmt.Sprintf("Not open to %s schools", profile.SchoolType))
		}
	}

	result.IsEligible = len(result.Reasons) == 0
	return result
}

// CalculateAmount locates the amount tier for the user's academic-level group
// and applies the school-type multiplier when one is configured. When no tier
// matches and no wildcard tier exists, it returns zero amounts rather than
// failing.
func (e *EligibilityEvaluator) CalculateAmount(cfg *models.SupportConfiguration, academicLevel string, profile *models.Profile) models.AmountResult {
	group := levelGroup(academicLevel)

	var tier *models.AmountTier
	for i := range cfg.AmountConfig {
		if cfg.AmountConfig[i].AcademicLevel == group {
			tier = &cfg.AmountConfig[i]
			break
		}
	}
	if tier == nil {
		for i := range cfg.AmountConfig {
			if cfg.AmountConfig[i].AcademicLevel == "all" {
				tier = &cfg.AmountConfig[i]
				break
			}
		}
	}
	if tier == nil {
		return models.AmountResult{Currency: "NGN", Frequency: models.FrequencyOnce}
	}

	multiplier := 1.0
	if profile != nil && profile.SchoolType != "" && tier.SchoolTypeMultipliers != nil {
		if m, ok := tier.SchoolTypeMultipliers[profile.SchoolType]; ok {
			multiplier = m
		}
	}

	return models.AmountResult{
		Min:       math.Round(tier.MinAmount * multiplier),
		Max:       math.Round(tier.MaxAmount * multiplier),
		Default:   math.Round(tier.DefaultAmount * multiplier),
		Currency:  tier.Currency,
		Frequency: tier.Frequency,
	}
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
