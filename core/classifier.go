package core

// Risk tiers checked in severity order; the first tier containing any
// detected category wins.
var (
	criticalRiskCategories = map[PIICategory]struct{}{
		CategorySSN:        {},
		CategoryCreditCard: {},
	}

	highRiskCategories = map[PIICategory]struct{}{
		CategoryDateOfBirth: {},
		CategorySalary:      {},
	}

	mediumRiskCategories = map[PIICategory]struct{}{
		CategoryEmail: {},
		CategoryPhone: {},
		CategoryName:  {},
	}

	lowRiskCategories = map[PIICategory]struct{}{
		CategoryAddress: {},
		CategoryAge:     {},
	}
)

// Classify derives the data classification for a set of detected
// categories. Tiers are checked from CRITICAL_RISK down and the first
// match wins, regardless of how many categories fall into lower tiers.
// Empty input and categories outside every tier yield NO_RISK.
func Classify(categories []PIICategory) DataClassification {
	if len(categories) == 0 {
		return ClassificationNoRisk
	}

	if anyIn(categories, criticalRiskCategories) {
		return ClassificationCriticalRisk
	}
	if anyIn(categories, highRiskCategories) {
		return ClassificationHighRisk
	}
	if anyIn(categories, mediumRiskCategories) {
		return ClassificationMediumRisk
	}
	if anyIn(categories, lowRiskCategories) {
		return ClassificationLowRisk
	}

	return ClassificationNoRisk
}

// AccessLevelFor maps a data classification to its access level.
// Unknown classifications fall back to INTERNAL rather than erroring.
func AccessLevelFor(classification DataClassification) AccessLevel {
	switch classification {
	case ClassificationNoRisk:
		return AccessPublic
	case ClassificationLowRisk:
		return AccessInternal
	case ClassificationMediumRisk:
		return AccessConfidential
	case ClassificationHighRisk:
		return AccessRestricted
	case ClassificationCriticalRisk:
		return AccessTopSecret
	default:
		return AccessInternal
	}
}

func anyIn(categories []PIICategory, tier map[PIICategory]struct{}) bool {
	for _, category := range categories {
		if _, ok := tier[category]; ok {
			return true
		}
	}
	return false
}
