package core

// PIICategory identifies a kind of personally identifiable information
type PIICategory string

const (
	// CategoryEmail represents email addresses
	CategoryEmail PIICategory = "EMAIL"

	// CategorySSN represents US Social Security Numbers
	CategorySSN PIICategory = "SSN"

	// CategoryPhone represents phone numbers
	CategoryPhone PIICategory = "PHONE"

	// CategoryName represents personal names
	CategoryName PIICategory = "NAME"

	// CategoryAddress represents postal addresses and their components
	CategoryAddress PIICategory = "ADDRESS"

	// CategoryCreditCard represents payment card numbers
	CategoryCreditCard PIICategory = "CREDIT_CARD"

	// CategoryDateOfBirth represents birth dates
	CategoryDateOfBirth PIICategory = "DATE_OF_BIRTH"

	// CategorySalary represents compensation figures
	CategorySalary PIICategory = "SALARY"

	// CategoryAge represents ages and birth years
	CategoryAge PIICategory = "AGE"

	// CategoryNone marks a unit where no PII was found
	CategoryNone PIICategory = "NONE"
)

// AllCategories lists every detectable category in the fixed order
// detection tables are evaluated in.
var AllCategories = []PIICategory{
	CategoryEmail,
	CategorySSN,
	CategoryPhone,
	CategoryName,
	CategoryAddress,
	CategoryCreditCard,
	CategoryDateOfBirth,
	CategorySalary,
	CategoryAge,
}

// DataClassification is a risk tier derived from the PII categories
// found in a unit. Tiers are ordered by severity; use SeverityRank to
// compare them.
type DataClassification string

const (
	ClassificationNoRisk       DataClassification = "NO_RISK"
	ClassificationLowRisk      DataClassification = "LOW_RISK"
	ClassificationMediumRisk   DataClassification = "MEDIUM_RISK"
	ClassificationHighRisk     DataClassification = "HIGH_RISK"
	ClassificationCriticalRisk DataClassification = "CRITICAL_RISK"
)

// SeverityRank returns the position of a classification in the severity
// order, NO_RISK being 0. Unknown values rank below NO_RISK.
func (c DataClassification) SeverityRank() int {
	switch c {
	case ClassificationNoRisk:
		return 0
	case ClassificationLowRisk:
		return 1
	case ClassificationMediumRisk:
		return 2
	case ClassificationHighRisk:
		return 3
	case ClassificationCriticalRisk:
		return 4
	default:
		return -1
	}
}

// AccessLevel is the access tier a classification maps to
type AccessLevel string

const (
	AccessPublic       AccessLevel = "PUBLIC"
	AccessInternal     AccessLevel = "INTERNAL"
	AccessConfidential AccessLevel = "CONFIDENTIAL"
	AccessRestricted   AccessLevel = "RESTRICTED"
	AccessTopSecret    AccessLevel = "TOP_SECRET"
)

// SourceType identifies which kind of data store a finding came from
type SourceType string

const (
	SourceCatalog     SourceType = "catalog"
	SourceObjectStore SourceType = "object_store"
	SourceItemStore   SourceType = "item_store"
)

// TaggingStatus tracks whether governance tags were applied for a finding
type TaggingStatus string

const (
	TaggingPending TaggingStatus = "pending"
	TaggingApplied TaggingStatus = "applied"
	TaggingFailed  TaggingStatus = "failed"
	TaggingSkipped TaggingStatus = "skipped"
)

// Finding is the detection result for a single scanned unit (a catalog
// column, an object, or an item batch). Classification and AccessLevel
// are always recomputed from Categories, never persisted independently.
type Finding struct {
	// Unique ID for correlation across logs and reports
	ID string `json:"id"`

	// Where the unit came from
	SourceType SourceType `json:"source_type"`

	// Fully qualified identifier, e.g. "db.table.column" or "bucket/key"
	SourceID string `json:"source_id"`

	// Categories detected in the unit, in detection order. Empty when
	// the unit is clean or unscanned.
	Categories []PIICategory `json:"categories"`

	// Confidence per detected category, in [0, 1]
	Confidence map[PIICategory]float64 `json:"confidence,omitempty"`

	// Derived views
	Classification DataClassification `json:"classification"`
	AccessLevel    AccessLevel        `json:"access_level"`

	// Governance outcome
	TaggingStatus TaggingStatus `json:"tagging_status"`

	// Unscanned marks a unit whose content could not be fetched; its
	// classification is NO_RISK by definition but it is counted
	// separately so failures stay visible.
	Unscanned bool `json:"unscanned,omitempty"`
}

// HasPII reports whether any category was detected for the unit
func (f Finding) HasPII() bool {
	return len(f.Categories) > 0
}

// PrimaryCategory returns the first detected category, or NONE
func (f Finding) PrimaryCategory() PIICategory {
	if len(f.Categories) == 0 {
		return CategoryNone
	}
	return f.Categories[0]
}
