package aws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearServerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_MCP_SERVER_PATH", "")
	t.Setenv("AWS_MCP_SERVER_URL", "")
	t.Setenv("AWS_MCP_SERVERS", "")
}

func TestGetMCPServerConfigExplicitPath(t *testing.T) {
	config, err := GetMCPServerConfig("/opt/bin/aws-mcp-server")
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/aws-mcp-server", config.Path)
	assert.Equal(t, "stdio", config.Transport)

	config, err = GetMCPServerConfig("https://mcp.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://mcp.example.com", config.URL)
	assert.Equal(t, "http", config.Transport)
}

func TestGetMCPServerConfigFromEnvironment(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("AWS_MCP_SERVER_PATH", "/test/path/aws-mcp-server")

	config, err := GetMCPServerConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/test/path/aws-mcp-server", config.Path)
	assert.Equal(t, "stdio", config.Transport)
}

func TestDiscoverMCPServersFromList(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AWS_MCP_SERVERS", "/opt/server-a, https://mcp.example.com")

	servers, err := DiscoverMCPServers()
	require.NoError(t, err)
	require.Len(t, servers, 2)

	assert.Equal(t, "/opt/server-a", servers[0].Path)
	assert.Equal(t, "stdio", servers[0].Transport)
	assert.Equal(t, "https://mcp.example.com", servers[1].URL)
	assert.Equal(t, "http", servers[1].Transport)
}

func TestDiscoverMCPServersNoneFound(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("HOME", t.TempDir())

	_, err := DiscoverMCPServers()
	assert.Error(t, err)
}

func TestLoadClientConfigDefaults(t *testing.T) {
	t.Setenv("AWS_REGION", "")

	config := LoadClientConfig(nil)
	assert.Equal(t, "us-west-2", config.Region)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 2, config.RetryCount)
	assert.Equal(t, 500*time.Millisecond, config.RetryBackoff)
	assert.Equal(t, 60, config.RequestsPerMinute)
	assert.Equal(t, "standard", config.AuditLevel)
}

func TestLoadClientConfigRegionFromEnvironment(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")

	config := LoadClientConfig(nil)
	assert.Equal(t, "eu-central-1", config.Region)
}

func TestLoadClientConfigBackfillsZeroValues(t *testing.T) {
	config := LoadClientConfig(&ClientConfig{
		Region:           "us-east-1",
		RateLimitEnabled: true,
	})

	// Explicit region survives, zero values get defaults
	assert.Equal(t, "us-east-1", config.Region)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 500*time.Millisecond, config.RetryBackoff)
	assert.Equal(t, 60, config.RequestsPerMinute)
	assert.Equal(t, "standard", config.AuditLevel)
}
