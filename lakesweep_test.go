package lakesweep

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftsec/lakesweep/core"
)

func TestMaskValue(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		category core.PIICategory
		expected string
	}{
		{"ssn keeps its shape", "123-45-6789", core.CategorySSN, "***-**-****"},
		{"credit card keeps last four", "4111111111111111", core.CategoryCreditCard, "************1111"},
		{"email keeps first two characters", "jane@example.com", core.CategoryEmail, "ja**************"},
		{"salary is redacted", "95000", core.CategorySalary, "[REDACTED_SALARY]"},
		{"unknown category untouched", "hello", core.PIICategory("UNKNOWN"), "hello"},
		{"empty value untouched", "", core.CategorySSN, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaskValue(tc.value, tc.category))
		})
	}
}

func TestMaskText(t *testing.T) {
	masked, err := MaskText("Reach jane@example.com, SSN 123-45-6789")
	require.NoError(t, err)

	assert.NotContains(t, masked, "jane@example.com")
	assert.NotContains(t, masked, "123-45-6789")
	assert.Contains(t, masked, "***-**-****")
	assert.Contains(t, masked, "Reach ")
}

func TestMaskTextClean(t *testing.T) {
	text := "quarterly revenue was up"
	masked, err := MaskText(text)
	require.NoError(t, err)
	assert.Equal(t, text, masked)
}

func TestShippedRulesMatchDefaults(t *testing.T) {
	// The YAML shipped with the binary must stay in sync with the
	// built-in tables used when it is absent
	if _, err := os.Stat(DefaultRulesPath); os.IsNotExist(err) {
		t.Skip("rules file not present")
	}

	shipped, err := core.LoadRules(DefaultRulesPath)
	require.NoError(t, err)

	defaults := core.DefaultRules()
	assert.Equal(t, len(defaults.NameRules), len(shipped.NameRules))
	assert.Equal(t, len(defaults.ContentRules), len(shipped.ContentRules))
	assert.Equal(t, len(defaults.MaskingRules), len(shipped.MaskingRules))
}

func TestConfigureMCPServer(t *testing.T) {
	t.Setenv("AWS_MCP_SERVER_PATH", "")

	ConfigureMCPServer("/opt/bin/aws-mcp-server")
	assert.Equal(t, "/opt/bin/aws-mcp-server", os.Getenv("AWS_MCP_SERVER_PATH"))
}
