package core

// Governance tag keys registered in the lake catalog
const (
	TagKeyPIIType           = "PIIType"
	TagKeyPIIClassification = "PIIClassification"
	TagKeyDataGovernance    = "DataGovernance"
	TagKeyDataClassification = "DataClassification"
	TagKeyAccessLevel       = "AccessLevel"
)

// PIIClassification values for the PIIClassification tag key
const (
	PIISensitive       = "SENSITIVE"
	PIIHighlySensitive = "HIGHLY_SENSITIVE"
	PIIConfidential    = "CONFIDENTIAL"
)

// DataGovernance values for the DataGovernance tag key
const (
	GovernancePIIDetected      = "PII_DETECTED"
	GovernanceRequiresMasking  = "REQUIRES_MASKING"
	GovernanceAccessRestricted = "ACCESS_RESTRICTED"
	GovernancePublic           = "PUBLIC"
)

// ResourceTag is a single key/values pair applied to a catalog resource
type ResourceTag struct {
	Key    string   `json:"tag_key"`
	Values []string `json:"tag_values"`
}

// TagDefinitions returns the full set of tag keys and their allowed
// values, used to register the tags with the governance service before
// any are assigned
func TagDefinitions() map[string][]string {
	piiValues := make([]string, 0, len(AllCategories)+1)
	for _, c := range AllCategories {
		piiValues = append(piiValues, string(c))
	}
	piiValues = append(piiValues, string(CategoryNone))

	return map[string][]string{
		TagKeyPIIType:           piiValues,
		TagKeyPIIClassification: {PIISensitive, PIIHighlySensitive, PIIConfidential},
		TagKeyDataGovernance:    {GovernancePIIDetected, GovernanceRequiresMasking, GovernanceAccessRestricted, GovernancePublic},
		TagKeyDataClassification: {
			string(ClassificationNoRisk),
			string(ClassificationLowRisk),
			string(ClassificationMediumRisk),
			string(ClassificationHighRisk),
			string(ClassificationCriticalRisk),
		},
		TagKeyAccessLevel: {
			string(AccessPublic),
			string(AccessInternal),
			string(AccessConfidential),
			string(AccessRestricted),
			string(AccessTopSecret),
		},
	}
}

// TagsForFinding derives the resource tag set for a scan finding.
// Findings with PII get five tags including a sensitivity rating;
// clean findings get a four-tag public baseline with no
// PIIClassification at all.
func TagsForFinding(f Finding) []ResourceTag {
	if !f.HasPII() {
		return []ResourceTag{
			{Key: TagKeyPIIType, Values: []string{string(CategoryNone)}},
			{Key: TagKeyDataClassification, Values: []string{string(ClassificationNoRisk)}},
			{Key: TagKeyAccessLevel, Values: []string{string(AccessPublic)}},
			{Key: TagKeyDataGovernance, Values: []string{GovernancePublic}},
		}
	}

	var sensitivity string
	switch f.Classification {
	case ClassificationHighRisk, ClassificationCriticalRisk:
		sensitivity = PIIHighlySensitive
	case ClassificationMediumRisk:
		sensitivity = PIISensitive
	default:
		sensitivity = PIIConfidential
	}

	return []ResourceTag{
		{Key: TagKeyPIIType, Values: []string{string(f.PrimaryCategory())}},
		{Key: TagKeyDataClassification, Values: []string{string(f.Classification)}},
		{Key: TagKeyAccessLevel, Values: []string{string(f.AccessLevel)}},
		{Key: TagKeyDataGovernance, Values: []string{GovernancePIIDetected}},
		{Key: TagKeyPIIClassification, Values: []string{sensitivity}},
	}
}
