package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/driftsec/lakesweep/aws"
	"github.com/driftsec/lakesweep/core"
)

// Config controls what a scan run covers and how it behaves
type Config struct {
	// Region recorded in the report
	Region string

	// Databases restricts the catalog phase to these databases; empty
	// scans everything the catalog returns
	Databases []string

	// Buckets restricts the object phase; empty scans all buckets
	Buckets []string

	// Tables restricts the item phase; empty scans all tables
	Tables []string

	// MaxObjects caps sampled objects per bucket
	MaxObjects int

	// MaxItems caps sampled items per table
	MaxItems int

	// SampleBytes caps the content fetched per object
	SampleBytes int

	// Workers bounds the per-unit worker pool
	Workers int

	// EnableNER turns on the external recognizer for text content
	EnableNER bool

	// EnableObjectScan and EnableItemScan toggle the non-catalog phases
	EnableObjectScan bool
	EnableItemScan   bool

	// ApplyTags hands findings to the governance collaborator
	ApplyTags bool

	// DryRun logs governance operations instead of sending them
	DryRun bool
}

// withDefaults fills in the zero values
func (c Config) withDefaults() Config {
	if c.Region == "" {
		c.Region = "us-west-2"
	}
	if c.MaxObjects == 0 {
		c.MaxObjects = 10
	}
	if c.MaxItems == 0 {
		c.MaxItems = 10
	}
	if c.SampleBytes == 0 {
		c.SampleBytes = 65536
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	return c
}

// Coordinator drives a scan: enumerate units through the collaborator,
// detect and classify each one, aggregate a report, and hand tags to
// the governance side. No collaborator failure aborts the run; failed
// units are recorded as unscanned and the scan moves on.
type Coordinator struct {
	collab   aws.Collaborator
	detector *core.Detector
	config   Config

	// false when tag definitions could not be registered; findings are
	// then marked TaggingSkipped instead of attempting per-unit calls
	tagsReady bool
}

// NewCoordinator creates a coordinator for the given collaborator and
// detector
func NewCoordinator(collab aws.Collaborator, detector *core.Detector, config Config) *Coordinator {
	return &Coordinator{
		collab:   collab,
		detector: detector,
		config:   config.withDefaults(),
	}
}

// Run executes every enabled scan phase and returns the aggregated
// report. The returned report is valid even when err is non-nil; a
// cancellation mid-scan yields the partial report plus ctx.Err().
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	scanID := uuid.NewString()
	report := NewReport(scanID, c.config.Region)

	core.LogScanEvent(scanID, "scan_started", core.SeverityInfo, "", map[string]string{
		"region":  c.config.Region,
		"dry_run": fmt.Sprintf("%t", c.config.DryRun),
	})

	c.prepareTags(ctx, scanID)

	c.scanCatalog(ctx, scanID, report)

	if c.config.EnableObjectScan && ctx.Err() == nil {
		c.scanObjectStore(ctx, scanID, report)
	}

	if c.config.EnableItemScan && ctx.Err() == nil {
		c.scanItemStore(ctx, scanID, report)
	}

	report.Finalize()

	core.LogScanEvent(scanID, "scan_completed", core.SeverityInfo, "", map[string]string{
		"total_units":     fmt.Sprintf("%d", report.TotalUnits()),
		"pii_units":       fmt.Sprintf("%d", report.PIIUnits),
		"unscanned_units": fmt.Sprintf("%d", report.UnscannedUnits),
	})

	return report, ctx.Err()
}

// prepareTags registers the tag definitions before any are assigned
func (c *Coordinator) prepareTags(ctx context.Context, scanID string) {
	if !c.config.ApplyTags {
		return
	}
	if c.config.DryRun {
		core.LogScanEvent(scanID, "tag_definitions_dry_run", core.SeverityInfo, "", map[string]string{
			"tag_keys": fmt.Sprintf("%d", len(core.TagDefinitions())),
		})
		c.tagsReady = true
		return
	}

	if err := c.collab.CreateTags(ctx, core.TagDefinitions()); err != nil {
		core.LogScanEvent(scanID, "tag_definitions_failed", core.SeverityWarning, "", map[string]string{
			"error": err.Error(),
		})
		c.tagsReady = false
		return
	}
	c.tagsReady = true
}

// scanCatalog walks databases, tables and columns
func (c *Coordinator) scanCatalog(ctx context.Context, scanID string, report *Report) {
	databases, err := c.collab.ListDatabases(ctx)
	if err != nil {
		core.LogScanEvent(scanID, "catalog_enumeration_failed", core.SeverityWarning, "", map[string]string{
			"error": err.Error(),
		})
		return
	}

	wanted := stringSet(c.config.Databases)

	for _, db := range databases {
		if len(wanted) > 0 {
			if _, ok := wanted[db.Name]; !ok {
				continue
			}
		}
		if ctx.Err() != nil {
			return
		}

		report.AddSource()
		c.scanDatabase(ctx, scanID, report, db)
	}
}

func (c *Coordinator) scanDatabase(ctx context.Context, scanID string, report *Report, db aws.Database) {
	for _, tableName := range db.Tables {
		if ctx.Err() != nil {
			return
		}

		table, err := c.collab.GetTable(ctx, db.Name, tableName)
		if err != nil {
			sourceID := db.Name + "." + tableName
			core.LogScanEvent(scanID, "table_fetch_failed", core.SeverityWarning, sourceID, map[string]string{
				"error": err.Error(),
			})
			report.Add(c.unscannedFinding(core.SourceCatalog, sourceID))
			continue
		}

		report.AddTable()
		c.scanTableColumns(ctx, scanID, report, table)
	}
}

// scanTableColumns fans the table's columns out over a bounded pool
func (c *Coordinator) scanTableColumns(ctx context.Context, scanID string, report *Report, table *aws.CatalogTable) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for _, column := range table.Columns {
		column := column
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			sourceID := fmt.Sprintf("%s.%s.%s", table.Database, table.Name, column.Name)
			categories, confidence := c.detector.DetectByName(column.Name)
			finding := c.newFinding(core.SourceCatalog, sourceID, categories, confidence)

			c.tagFinding(gctx, scanID, &finding, table.Database, table.Name, column.Name)
			report.Add(finding)

			if finding.HasPII() {
				core.LogScanEvent(scanID, "pii_detected", core.SeverityInfo, sourceID, map[string]string{
					"categories":     joinCategories(categories),
					"classification": string(finding.Classification),
				})
			}
			return nil
		})
	}

	g.Wait()
}

// scanObjectStore samples object content from each bucket
func (c *Coordinator) scanObjectStore(ctx context.Context, scanID string, report *Report) {
	buckets := c.config.Buckets
	if len(buckets) == 0 {
		var err error
		buckets, err = c.collab.ListBuckets(ctx)
		if err != nil {
			core.LogScanEvent(scanID, "bucket_enumeration_failed", core.SeverityWarning, "", map[string]string{
				"error": err.Error(),
			})
			return
		}
	}

	for _, bucket := range buckets {
		if ctx.Err() != nil {
			return
		}
		report.AddSource()
		c.scanBucket(ctx, scanID, report, bucket)
	}
}

func (c *Coordinator) scanBucket(ctx context.Context, scanID string, report *Report, bucket string) {
	meta, err := c.collab.GetBucketMetadata(ctx, bucket)
	if err != nil {
		core.LogScanEvent(scanID, "bucket_metadata_failed", core.SeverityWarning, bucket, map[string]string{
			"error": err.Error(),
		})
		report.Add(c.unscannedFinding(core.SourceObjectStore, bucket))
		return
	}

	objects := meta.Objects
	if len(objects) > c.config.MaxObjects {
		objects = objects[:c.config.MaxObjects]
	}

	var bucketHadPII atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for _, object := range objects {
		object := object
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			sourceID := bucket + "/" + object.Key

			content, err := c.collab.SampleObject(gctx, bucket, object.Key, c.config.SampleBytes)
			if err != nil {
				// One object's failure never aborts the batch
				core.LogScanEvent(scanID, "unit_unscanned", core.SeverityWarning, sourceID, map[string]string{
					"error": err.Error(),
				})
				report.Add(c.unscannedFinding(core.SourceObjectStore, sourceID))
				return nil
			}

			categories, confidence := c.detector.DetectInText(gctx, content, c.config.EnableNER)
			finding := c.newFinding(core.SourceObjectStore, sourceID, categories, confidence)
			finding.TaggingStatus = core.TaggingSkipped
			report.Add(finding)

			if finding.HasPII() {
				bucketHadPII.Store(true)
				core.LogScanEvent(scanID, "pii_detected", core.SeverityInfo, sourceID, map[string]string{
					"categories":     joinCategories(categories),
					"classification": string(finding.Classification),
				})
			}
			return nil
		})
	}

	g.Wait()

	// Register PII-bearing buckets with the governance service so tag
	// based access control can cover their location
	if bucketHadPII.Load() && c.config.ApplyTags && c.tagsReady {
		if c.config.DryRun {
			core.LogScanEvent(scanID, "resource_registration_dry_run", core.SeverityInfo, bucket, nil)
			return
		}
		arn := "arn:aws:s3:::" + bucket
		if err := c.collab.RegisterResource(ctx, arn); err != nil {
			core.LogScanEvent(scanID, "resource_registration_failed", core.SeverityWarning, bucket, map[string]string{
				"error": err.Error(),
			})
		}
	}
}

// scanItemStore samples item batches from each item-store table. The
// batch is one scan unit: attribute names and item values are detected
// together into a single finding per table.
func (c *Coordinator) scanItemStore(ctx context.Context, scanID string, report *Report) {
	tables := c.config.Tables
	if len(tables) == 0 {
		var err error
		tables, err = c.collab.ListTables(ctx)
		if err != nil {
			core.LogScanEvent(scanID, "table_enumeration_failed", core.SeverityWarning, "", map[string]string{
				"error": err.Error(),
			})
			return
		}
	}

	for _, table := range tables {
		if ctx.Err() != nil {
			return
		}

		report.AddSource()
		report.AddTable()

		items, err := c.collab.ScanTable(ctx, table, c.config.MaxItems)
		if err != nil {
			core.LogScanEvent(scanID, "unit_unscanned", core.SeverityWarning, table, map[string]string{
				"error": err.Error(),
			})
			report.Add(c.unscannedFinding(core.SourceItemStore, table))
			continue
		}

		categories, confidence := c.detectItems(ctx, items)
		finding := c.newFinding(core.SourceItemStore, table, categories, confidence)
		finding.TaggingStatus = core.TaggingSkipped
		report.Add(finding)

		if finding.HasPII() {
			core.LogScanEvent(scanID, "pii_detected", core.SeverityInfo, table, map[string]string{
				"categories":     joinCategories(categories),
				"classification": string(finding.Classification),
			})
		}
	}
}

// detectItems merges name-based detection over attribute keys with
// content detection over the serialized items
func (c *Coordinator) detectItems(ctx context.Context, items []map[string]interface{}) ([]core.PIICategory, map[core.PIICategory]float64) {
	var categories []core.PIICategory
	confidence := make(map[core.PIICategory]float64)

	merge := func(cats []core.PIICategory, conf map[core.PIICategory]float64) {
		for _, category := range cats {
			if _, seen := confidence[category]; !seen {
				categories = append(categories, category)
			}
			if conf[category] > confidence[category] {
				confidence[category] = conf[category]
			}
		}
	}

	// Attribute names first, in a stable order
	names := make(map[string]struct{})
	for _, item := range items {
		for name := range item {
			names[name] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	for _, name := range ordered {
		cats, conf := c.detector.DetectByName(name)
		merge(cats, conf)
	}

	// Then the item contents as one text sample
	if len(items) > 0 {
		serialized, err := json.Marshal(items)
		if err == nil {
			cats, conf := c.detector.DetectInText(ctx, string(serialized), c.config.EnableNER)
			merge(cats, conf)
		}
	}

	return categories, confidence
}

// newFinding classifies detected categories into a finding
func (c *Coordinator) newFinding(sourceType core.SourceType, sourceID string, categories []core.PIICategory, confidence map[core.PIICategory]float64) core.Finding {
	classification := core.Classify(categories)
	return core.Finding{
		ID:             uuid.NewString(),
		SourceType:     sourceType,
		SourceID:       sourceID,
		Categories:     categories,
		Confidence:     confidence,
		Classification: classification,
		AccessLevel:    core.AccessLevelFor(classification),
		TaggingStatus:  core.TaggingPending,
	}
}

// unscannedFinding records a unit whose content could not be fetched
func (c *Coordinator) unscannedFinding(sourceType core.SourceType, sourceID string) core.Finding {
	finding := c.newFinding(sourceType, sourceID, nil, nil)
	finding.Unscanned = true
	finding.TaggingStatus = core.TaggingSkipped
	return finding
}

// tagFinding applies governance tags for a catalog finding and records
// the outcome on the finding itself
func (c *Coordinator) tagFinding(ctx context.Context, scanID string, finding *core.Finding, database, table, column string) {
	if !c.config.ApplyTags || !c.tagsReady {
		finding.TaggingStatus = core.TaggingSkipped
		return
	}

	tags := core.TagsForFinding(*finding)

	if c.config.DryRun {
		finding.TaggingStatus = core.TaggingSkipped
		core.LogScanEvent(scanID, "tags_dry_run", core.SeverityInfo, finding.SourceID, map[string]string{
			"tag_count": fmt.Sprintf("%d", len(tags)),
		})
		return
	}

	if err := c.collab.ApplyTags(ctx, database, table, column, tags); err != nil {
		finding.TaggingStatus = core.TaggingFailed
		core.LogScanEvent(scanID, "tagging_failed", core.SeverityWarning, finding.SourceID, map[string]string{
			"error": err.Error(),
		})
		return
	}

	finding.TaggingStatus = core.TaggingApplied
	core.LogTaggingEvent(scanID, finding.SourceID, finding.Categories, finding.Classification, nil)
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func joinCategories(categories []core.PIICategory) string {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}
