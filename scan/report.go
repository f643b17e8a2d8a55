package scan

import (
	"sync"
	"time"

	"github.com/driftsec/lakesweep/core"
)

// Report aggregates findings and summary counters for one scan run.
// Add is safe to call from concurrent workers; everything else assumes
// the scan has finished.
type Report struct {
	mu sync.Mutex

	ScanID      string    `json:"scan_id"`
	Region      string    `json:"region,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`

	Findings []core.Finding `json:"findings"`

	// Counters
	TotalSources   int `json:"total_sources"`
	TotalTables    int `json:"total_tables"`
	TotalColumns   int `json:"total_columns"`
	PIIUnits       int `json:"pii_units"`
	NoRiskUnits    int `json:"no_risk_units"`
	UnscannedUnits int `json:"unscanned_units"`

	Histogram map[core.DataClassification]int `json:"classification_histogram"`

	// Source IDs with at least one PII finding
	piiSources map[string]struct{}
}

// NewReport creates an empty report for a scan run
func NewReport(scanID, region string) *Report {
	return &Report{
		ScanID:     scanID,
		Region:     region,
		StartedAt:  time.Now(),
		Findings:   []core.Finding{},
		Histogram:  make(map[core.DataClassification]int),
		piiSources: make(map[string]struct{}),
	}
}

// Add records one finding and updates every counter
func (r *Report) Add(f core.Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Findings = append(r.Findings, f)
	r.Histogram[f.Classification]++

	switch {
	case f.Unscanned:
		r.UnscannedUnits++
	case f.HasPII():
		r.PIIUnits++
		r.piiSources[f.SourceID] = struct{}{}
	default:
		r.NoRiskUnits++
	}

	if f.SourceType == core.SourceCatalog && !f.Unscanned {
		r.TotalColumns++
	}
}

// AddSource counts one enumerated source (database, bucket or table group)
func (r *Report) AddSource() {
	r.mu.Lock()
	r.TotalSources++
	r.mu.Unlock()
}

// AddTable counts one enumerated table
func (r *Report) AddTable() {
	r.mu.Lock()
	r.TotalTables++
	r.mu.Unlock()
}

// PIISources returns how many distinct sources had PII findings
func (r *Report) PIISources() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.piiSources)
}

// TotalUnits returns how many units were recorded, unscanned included
func (r *Report) TotalUnits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Findings)
}

// Finalize stamps the completion time
func (r *Report) Finalize() {
	r.mu.Lock()
	r.CompletedAt = time.Now()
	r.mu.Unlock()
}

// ClassificationSummary groups affected source IDs per classification
func (r *Report) ClassificationSummary() map[core.DataClassification][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := make(map[core.DataClassification][]string)
	for _, f := range r.Findings {
		summary[f.Classification] = append(summary[f.Classification], f.SourceID)
	}
	return summary
}
