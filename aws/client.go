package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/driftsec/lakesweep/core"
)

// Tool names exposed by the AWS MCP server
const (
	toolListBuckets       = "list_s3_buckets"
	toolGetBucketMetadata = "get_bucket_metadata"
	toolSampleObject      = "sample_object"
	toolListTables        = "list_tables"
	toolDescribeTable     = "describe_table"
	toolScanTable         = "scan_table"
	toolListGlueDatabases = "list_glue_databases"
	toolGetGlueTable      = "get_glue_table"
	toolDetectPIIEntities = "detect_pii_entities"
	toolCreateLFTag       = "create_lf_tag"
	toolRegisterResource  = "register_resource"
	toolAddLFTags         = "add_lf_tags_to_resource"
)

// Client is the MCP-backed production implementation of Collaborator.
// Every AWS interaction goes through one stdio MCP server; tool results
// carry JSON payloads in their text content.
type Client struct {
	Client *client.StdioMCPClient
	Config ClientConfig

	rateLimiter   *RateLimiter
	requestLog    *RequestLogger
	errorReporter *ErrorReporter
}

var _ Collaborator = (*Client)(nil)

// NewClient initializes a new collaborator client with configuration.
// serverPath may be empty, in which case the server is discovered from
// the environment.
func NewClient(serverPath string, config *ClientConfig) (*Client, error) {
	// Get MCP server configuration
	serverConfig, err := GetMCPServerConfig(serverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to configure MCP server: %w", err)
	}

	// Load and merge configuration
	config = LoadClientConfig(config)

	// Create appropriate MCP client based on transport type
	var mcpClient *client.StdioMCPClient
	switch serverConfig.Transport {
	case "stdio":
		// MCP client expects nil or []string for options
		var opts []string
		if len(serverConfig.Options) > 0 {
			// Convert map to slice of "key=value" strings
			opts = make([]string, 0, len(serverConfig.Options))
			for k, v := range serverConfig.Options {
				opts = append(opts, fmt.Sprintf("%s=%v", k, v))
			}
		}
		mcpClient, err = client.NewStdioMCPClient(serverConfig.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP stdio client: %w", err)
		}
	case "http":
		// Note: Current MCP Go client doesn't support HTTP transport directly
		return nil, fmt.Errorf("HTTP transport not currently supported by this implementation")
	default:
		return nil, fmt.Errorf("unsupported MCP transport type: %s", serverConfig.Transport)
	}

	// Create logger
	logger := log.New(os.Stdout, "[lakesweep] ", log.LstdFlags)

	// Initialize rate limiter if enabled
	var rateLimiter *RateLimiter
	if config.RateLimitEnabled {
		rateLimiter = NewRateLimiter(config.RequestsPerMinute, 1*time.Minute)
	}

	c := &Client{
		Client:        mcpClient,
		Config:        *config,
		rateLimiter:   rateLimiter,
		requestLog:    NewRequestLogger(logger, config.AuditLevel),
		errorReporter: NewErrorReporter(logger),
	}

	logger.Printf("Collaborator client initialized with server: %s, region: %s, RateLimit=%v, AuditLevel=%s",
		serverConfig.Path, config.Region, config.RateLimitEnabled, config.AuditLevel)

	return c, nil
}

// Close shuts down the MCP transport
func (c *Client) Close() error {
	return c.Client.Close()
}

// callTool invokes one MCP tool with retries and returns the text
// payload of the result
func (c *Client) callTool(ctx context.Context, tool string, args map[string]interface{}, category ErrorCategory) (string, error) {
	requestID := uuid.NewString()
	startTime := time.Now()

	if args == nil {
		args = map[string]interface{}{}
	}
	if _, ok := args["region"]; !ok {
		args["region"] = c.Config.Region
	}
	args["request_id"] = requestID

	c.requestLog.LogRequest(requestID, map[string]interface{}{
		"tool":   tool,
		"region": c.Config.Region,
	}, "minimal")

	// Check rate limit if enabled
	if c.rateLimiter != nil {
		limited, count, resetTime := c.rateLimiter.CheckLimit(tool)
		if limited {
			rateLimitErr := newOpError(ErrorCategoryNetwork,
				fmt.Errorf("rate limit exceeded: %d requests (limit: %d)",
					count, c.Config.RequestsPerMinute),
				requestID,
				map[string]interface{}{
					"current_count": count,
					"limit":         c.Config.RequestsPerMinute,
					"reset_time":    resetTime.Format(time.RFC3339),
				})
			c.errorReporter.ReportError(rateLimitErr)
			return "", rateLimitErr
		}
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, c.Config.Timeout)
	defer cancel()

	// Prepare request
	request := mcp.CallToolRequest{}
	request.Params.Name = tool
	request.Params.Arguments = args

	// Call tool with retries
	var result *mcp.CallToolResult
	var err error
	var lastError error

	for attempt := 0; attempt <= c.Config.RetryCount; attempt++ {
		if attempt > 0 {
			// Wait before retry with exponential backoff
			backoffTime := c.Config.RetryBackoff * time.Duration(1<<(attempt-1))
			time.Sleep(backoffTime)
			c.requestLog.LogRequest(requestID, map[string]interface{}{
				"retry_attempt":  attempt,
				"backoff_ms":     backoffTime.Milliseconds(),
				"previous_error": lastError.Error(),
			}, "verbose")
		}

		result, err = c.Client.CallTool(ctx, request)
		lastError = err

		if err == nil {
			break
		}

		// Don't retry if context is done
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			timeoutErr := newOpError(ErrorCategoryTimeout,
				fmt.Errorf("MCP call timeout or canceled: %w", err),
				requestID, nil)
			c.errorReporter.ReportError(timeoutErr)
			return "", timeoutErr
		}
	}

	if err != nil {
		// Categorize error type for better reporting
		errorCategory := categorizeError(err)
		if errorCategory == ErrorCategorySystem {
			errorCategory = category
		}
		finalErr := newOpError(errorCategory,
			fmt.Errorf("MCP call %s failed after %d attempts: %w", tool, c.Config.RetryCount+1, err),
			requestID, nil)
		c.errorReporter.ReportError(finalErr)
		return "", finalErr
	}

	// Check if there was an error in the result
	if result.IsError {
		resultErr := newOpError(category,
			fmt.Errorf("MCP tool %s returned an error: %v", tool, result.Result),
			requestID, nil)
		c.errorReporter.ReportError(resultErr)
		return "", resultErr
	}

	// Extract text content from the result
	payload := ""
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			payload += textContent.Text
		}
	}

	c.requestLog.LogResponse(requestID, map[string]interface{}{
		"tool":          tool,
		"payload_chars": len(payload),
	}, time.Since(startTime), "standard")

	return payload, nil
}

// callToolJSON invokes a tool and unmarshals its JSON payload into out
func (c *Client) callToolJSON(ctx context.Context, tool string, args map[string]interface{}, category ErrorCategory, out interface{}) error {
	payload, err := c.callTool(ctx, tool, args, category)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return newOpError(ErrorCategoryValidation,
			fmt.Errorf("tool %s returned malformed payload: %w", tool, err),
			"", nil)
	}

	return nil
}

// ListBuckets returns the names of all reachable buckets
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	var resp struct {
		Buckets []string `json:"buckets"`
	}
	if err := c.callToolJSON(ctx, toolListBuckets, nil, ErrorCategoryDiscovery, &resp); err != nil {
		return nil, err
	}
	return resp.Buckets, nil
}

// GetBucketMetadata returns a bucket description with its object listing
func (c *Client) GetBucketMetadata(ctx context.Context, bucket string) (*BucketMetadata, error) {
	var resp BucketMetadata
	args := map[string]interface{}{"bucket_name": bucket}
	if err := c.callToolJSON(ctx, toolGetBucketMetadata, args, ErrorCategoryDiscovery, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SampleObject fetches up to maxBytes of an object's content
func (c *Client) SampleObject(ctx context.Context, bucket, key string, maxBytes int) (string, error) {
	var resp struct {
		Content string `json:"content"`
	}
	args := map[string]interface{}{
		"bucket_name": bucket,
		"key":         key,
		"max_bytes":   maxBytes,
	}
	if err := c.callToolJSON(ctx, toolSampleObject, args, ErrorCategorySampling, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// ListTables returns the names of all item-store tables
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	var resp struct {
		Tables []string `json:"tables"`
	}
	if err := c.callToolJSON(ctx, toolListTables, nil, ErrorCategoryDiscovery, &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

// DescribeTable returns metadata for one item-store table
func (c *Client) DescribeTable(ctx context.Context, table string) (*TableInfo, error) {
	var resp TableInfo
	args := map[string]interface{}{"table_name": table}
	if err := c.callToolJSON(ctx, toolDescribeTable, args, ErrorCategoryDiscovery, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScanTable samples up to maxItems items from a table
func (c *Client) ScanTable(ctx context.Context, table string, maxItems int) ([]map[string]interface{}, error) {
	var resp struct {
		Items []map[string]interface{} `json:"items"`
	}
	args := map[string]interface{}{
		"table_name": table,
		"max_items":  maxItems,
	}
	if err := c.callToolJSON(ctx, toolScanTable, args, ErrorCategorySampling, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ListDatabases returns catalog databases with their table names
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	var resp struct {
		Databases []Database `json:"databases"`
	}
	if err := c.callToolJSON(ctx, toolListGlueDatabases, nil, ErrorCategoryDiscovery, &resp); err != nil {
		return nil, err
	}
	return resp.Databases, nil
}

// GetTable returns the schema of one catalog table
func (c *Client) GetTable(ctx context.Context, database, table string) (*CatalogTable, error) {
	var resp CatalogTable
	args := map[string]interface{}{
		"database_name": database,
		"table_name":    table,
	}
	if err := c.callToolJSON(ctx, toolGetGlueTable, args, ErrorCategoryDiscovery, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DetectEntities submits text to the managed entity-recognition service
func (c *Client) DetectEntities(ctx context.Context, text, languageCode string) ([]core.Entity, error) {
	var resp struct {
		Entities []struct {
			Label string  `json:"label"`
			Score float64 `json:"score"`
		} `json:"entities"`
	}
	args := map[string]interface{}{
		"text":          text,
		"language_code": languageCode,
	}
	if err := c.callToolJSON(ctx, toolDetectPIIEntities, args, ErrorCategoryNER, &resp); err != nil {
		return nil, err
	}

	entities := make([]core.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		entities = append(entities, core.Entity{Label: e.Label, Score: e.Score})
	}
	return entities, nil
}

// CreateTags registers every tag key with its allowed values. Keys that
// already exist on the governance side are treated as success by the
// server.
func (c *Client) CreateTags(ctx context.Context, definitions map[string][]string) error {
	for key, values := range definitions {
		args := map[string]interface{}{
			"tag_key":    key,
			"tag_values": values,
		}
		if _, err := c.callTool(ctx, toolCreateLFTag, args, ErrorCategoryGovernance); err != nil {
			return err
		}
	}
	return nil
}

// RegisterResource registers a storage location with the governance service
func (c *Client) RegisterResource(ctx context.Context, resourceARN string) error {
	args := map[string]interface{}{"resource_arn": resourceARN}
	_, err := c.callTool(ctx, toolRegisterResource, args, ErrorCategoryGovernance)
	return err
}

// ApplyTags attaches classification tags to a table or column
func (c *Client) ApplyTags(ctx context.Context, database, table, column string, tags []core.ResourceTag) error {
	lfTags := make([]map[string]interface{}, 0, len(tags))
	for _, tag := range tags {
		lfTags = append(lfTags, map[string]interface{}{
			"tag_key":    tag.Key,
			"tag_values": tag.Values,
		})
	}

	args := map[string]interface{}{
		"database_name": database,
		"table_name":    table,
		"lf_tags":       lfTags,
	}
	if column != "" {
		args["column_name"] = column
	}

	_, err := c.callTool(ctx, toolAddLFTags, args, ErrorCategoryGovernance)
	return err
}
