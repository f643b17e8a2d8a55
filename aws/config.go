package aws

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MCPServerConfig holds configuration for connecting to MCP servers
type MCPServerConfig struct {
	// Path to the MCP server executable or empty string for HTTP
	Path string

	// URL for HTTP transport (if Path is empty)
	URL string

	// Transport type: "stdio" or "http"
	Transport string

	// Additional connection options
	Options map[string]interface{}
}

// NewMCPServerConfig creates a new server configuration with defaults
func NewMCPServerConfig() *MCPServerConfig {
	return &MCPServerConfig{
		Transport: "stdio",
		Options:   make(map[string]interface{}),
	}
}

// DiscoverMCPServers tries to discover available MCP servers using various methods
func DiscoverMCPServers() ([]MCPServerConfig, error) {
	servers := []MCPServerConfig{}

	// 1. Check environment variables
	if serverPath := os.Getenv("AWS_MCP_SERVER_PATH"); serverPath != "" {
		servers = append(servers, MCPServerConfig{
			Path:      serverPath,
			Transport: "stdio",
		})
	}

	if serverURL := os.Getenv("AWS_MCP_SERVER_URL"); serverURL != "" {
		servers = append(servers, MCPServerConfig{
			URL:       serverURL,
			Transport: "http",
		})
	}

	// 2. Check common installation locations
	commonPaths := []string{
		"./aws-mcp-server",
		filepath.Join(os.Getenv("HOME"), ".local/bin/aws-mcp-server"),
		"/usr/local/bin/aws-mcp-server",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			// File exists
			servers = append(servers, MCPServerConfig{
				Path:      path,
				Transport: "stdio",
			})
		}
	}

	// 3. Parse AWS_MCP_SERVERS environment variable (comma-separated list)
	if serverList := os.Getenv("AWS_MCP_SERVERS"); serverList != "" {
		for _, server := range strings.Split(serverList, ",") {
			server = strings.TrimSpace(server)
			if strings.HasPrefix(server, "http://") || strings.HasPrefix(server, "https://") {
				servers = append(servers, MCPServerConfig{
					URL:       server,
					Transport: "http",
				})
			} else {
				servers = append(servers, MCPServerConfig{
					Path:      server,
					Transport: "stdio",
				})
			}
		}
	}

	// Return discovered servers or error if none found
	if len(servers) == 0 {
		return nil, fmt.Errorf("no MCP servers discovered; please set AWS_MCP_SERVER_PATH, AWS_MCP_SERVER_URL, or AWS_MCP_SERVERS environment variable")
	}

	return servers, nil
}

// GetMCPServerConfig returns an appropriate MCP server configuration
// It accepts an optional serverPath parameter that takes precedence if provided
func GetMCPServerConfig(serverPath string) (*MCPServerConfig, error) {
	// If direct path provided, use it
	if serverPath != "" {
		if strings.HasPrefix(serverPath, "http://") || strings.HasPrefix(serverPath, "https://") {
			return &MCPServerConfig{
				URL:       serverPath,
				Transport: "http",
			}, nil
		}
		return &MCPServerConfig{
			Path:      serverPath,
			Transport: "stdio",
		}, nil
	}

	// Try to discover available servers
	servers, err := DiscoverMCPServers()
	if err != nil {
		return nil, err
	}

	// Return the first available server
	return &servers[0], nil
}

// ClientConfig holds configuration for collaborator calls
type ClientConfig struct {
	Region       string        // AWS region passed to every tool call
	Timeout      time.Duration // Context timeout for calls
	RetryCount   int           // Number of retries on failure
	RetryBackoff time.Duration // Backoff duration between retries

	RateLimitEnabled  bool   // Enable rate limiting
	RequestsPerMinute int    // Max requests per minute (for rate limiting)
	AuditLevel        string // Audit logging level: "minimal", "standard", "verbose"
}

// LoadClientConfig merges defaults, environment and explicit settings
func LoadClientConfig(config *ClientConfig) *ClientConfig {
	// Start with defaults if config is nil
	if config == nil {
		config = &ClientConfig{
			Region:            "us-west-2",
			Timeout:           30 * time.Second,
			RetryCount:        2,
			RetryBackoff:      500 * time.Millisecond,
			RequestsPerMinute: 60,
			AuditLevel:        "standard",
		}

		// Override defaults with environment variables if present
		if region := os.Getenv("AWS_REGION"); region != "" {
			config.Region = region
		}
	}

	// For existing configs, explicitly provided values take precedence
	// over the environment

	if config.Region == "" {
		config.Region = "us-west-2"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}
	if config.RateLimitEnabled && config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 60
	}
	if config.AuditLevel == "" {
		config.AuditLevel = "standard"
	}

	return config
}
