package aws

import (
	"context"

	"github.com/driftsec/lakesweep/core"
)

// Column is a single column of a catalog table
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CatalogTable is a table registered in the data catalog
type CatalogTable struct {
	Database string   `json:"database"`
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	Location string   `json:"location,omitempty"`
}

// Database is a catalog database with its table names
type Database struct {
	Name   string   `json:"name"`
	Tables []string `json:"tables"`
}

// ObjectInfo identifies one stored object
type ObjectInfo struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// BucketMetadata describes a bucket and its sampled object listing
type BucketMetadata struct {
	Name        string       `json:"name"`
	Region      string       `json:"region,omitempty"`
	ObjectCount int64        `json:"object_count"`
	Objects     []ObjectInfo `json:"objects"`
}

// TableInfo describes an item-store table
type TableInfo struct {
	Name       string   `json:"name"`
	Attributes []string `json:"attributes,omitempty"`
	ItemCount  int64    `json:"item_count"`
}

// Catalog enumerates databases and tables from the data catalog
type Catalog interface {
	ListDatabases(ctx context.Context) ([]Database, error)
	GetTable(ctx context.Context, database, table string) (*CatalogTable, error)
}

// ObjectStore enumerates buckets and samples object content
type ObjectStore interface {
	ListBuckets(ctx context.Context) ([]string, error)
	GetBucketMetadata(ctx context.Context, bucket string) (*BucketMetadata, error)
	SampleObject(ctx context.Context, bucket, key string, maxBytes int) (string, error)
}

// ItemStore enumerates item tables and samples item batches
type ItemStore interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) (*TableInfo, error)
	ScanTable(ctx context.Context, table string, maxItems int) ([]map[string]interface{}, error)
}

// Governance registers resources and applies classification tags
type Governance interface {
	CreateTags(ctx context.Context, definitions map[string][]string) error
	RegisterResource(ctx context.Context, resourceARN string) error
	ApplyTags(ctx context.Context, database, table, column string, tags []core.ResourceTag) error
}

// Collaborator bundles every external surface the scanner consumes.
// The production implementation is the MCP-backed Client; tests supply
// fakes.
type Collaborator interface {
	Catalog
	ObjectStore
	ItemStore
	Governance
	core.EntityRecognizer
}
