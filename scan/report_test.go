package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftsec/lakesweep/core"
)

func TestReportCounters(t *testing.T) {
	report := NewReport("scan-1", "us-west-2")

	report.AddSource()
	report.AddTable()

	report.Add(core.Finding{
		SourceType:     core.SourceCatalog,
		SourceID:       "hr.employees.ssn",
		Categories:     []core.PIICategory{core.CategorySSN},
		Classification: core.ClassificationCriticalRisk,
	})
	report.Add(core.Finding{
		SourceType:     core.SourceCatalog,
		SourceID:       "hr.employees.id",
		Classification: core.ClassificationNoRisk,
	})
	report.Add(core.Finding{
		SourceType:     core.SourceObjectStore,
		SourceID:       "bucket/broken.csv",
		Classification: core.ClassificationNoRisk,
		Unscanned:      true,
	})

	assert.Equal(t, 1, report.TotalSources)
	assert.Equal(t, 1, report.TotalTables)
	assert.Equal(t, 3, report.TotalUnits())
	assert.Equal(t, 1, report.PIIUnits)
	assert.Equal(t, 1, report.NoRiskUnits)
	assert.Equal(t, 1, report.UnscannedUnits)

	// Only catalog columns that were actually scanned count as columns
	assert.Equal(t, 2, report.TotalColumns)

	assert.Equal(t, 1, report.Histogram[core.ClassificationCriticalRisk])
	assert.Equal(t, 2, report.Histogram[core.ClassificationNoRisk])
}

func TestReportPIISourcesDeduplicated(t *testing.T) {
	report := NewReport("scan-1", "")

	for i := 0; i < 3; i++ {
		report.Add(core.Finding{
			SourceType:     core.SourceCatalog,
			SourceID:       "hr.employees.ssn",
			Categories:     []core.PIICategory{core.CategorySSN},
			Classification: core.ClassificationCriticalRisk,
		})
	}
	report.Add(core.Finding{
		SourceType:     core.SourceCatalog,
		SourceID:       "hr.employees.email",
		Categories:     []core.PIICategory{core.CategoryEmail},
		Classification: core.ClassificationMediumRisk,
	})

	assert.Equal(t, 2, report.PIISources())
	assert.Equal(t, 4, report.PIIUnits)
}

func TestReportFinalize(t *testing.T) {
	report := NewReport("scan-1", "")
	assert.True(t, report.CompletedAt.IsZero())

	report.Finalize()
	assert.False(t, report.CompletedAt.IsZero())
	assert.False(t, report.CompletedAt.Before(report.StartedAt))
}

func TestClassificationSummary(t *testing.T) {
	report := NewReport("scan-1", "")

	report.Add(core.Finding{SourceID: "a", Classification: core.ClassificationCriticalRisk})
	report.Add(core.Finding{SourceID: "b", Classification: core.ClassificationCriticalRisk})
	report.Add(core.Finding{SourceID: "c", Classification: core.ClassificationNoRisk})

	summary := report.ClassificationSummary()
	assert.ElementsMatch(t, []string{"a", "b"}, summary[core.ClassificationCriticalRisk])
	assert.Equal(t, []string{"c"}, summary[core.ClassificationNoRisk])
}
