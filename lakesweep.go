package lakesweep

import (
	"context"
	"fmt"
	"os"

	"github.com/driftsec/lakesweep/aws"
	"github.com/driftsec/lakesweep/core"
	"github.com/driftsec/lakesweep/scan"
)

// DefaultRulesPath is where the shipped rules configuration lives
const DefaultRulesPath = "config/default_rules.yaml"

// ConfigureMCPServer sets the MCP server every scan uses.
// It can be called once at startup to set the server details.
func ConfigureMCPServer(serverPath string) {
	os.Setenv("AWS_MCP_SERVER_PATH", serverPath)
}

// RunScan runs a full discovery scan with the shipped rules and
// auto-discovered MCP server
func RunScan(ctx context.Context, scanConfig scan.Config) (*scan.Report, error) {
	return RunScanWithConfig(ctx, "", nil, scanConfig)
}

// RunScanWithConfig runs a full discovery scan with a custom server
// path and client configuration. serverPath may be empty to use
// discovery; clientConfig may be nil for defaults.
func RunScanWithConfig(ctx context.Context, serverPath string, clientConfig *aws.ClientConfig, scanConfig scan.Config) (*scan.Report, error) {
	// Load detection rules
	rules, err := loadRulesOrDefault(DefaultRulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	// Initialize collaborator client with auto-discovery of servers
	client, err := aws.NewClient(serverPath, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize collaborator client: %w", err)
	}
	defer client.Close()

	// Build the detector with the client as entity recognizer
	detector, err := core.NewDetector(rules, client)
	if err != nil {
		return nil, fmt.Errorf("failed to build detector: %w", err)
	}

	// Run the scan
	coordinator := scan.NewCoordinator(client, detector, scanConfig)
	report, err := coordinator.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("scan interrupted: %w", err)
	}

	return report, nil
}

// MaskText rewrites text with every detected PII match masked through
// the default rule table. Useful for producing a safe preview of
// sampled content.
func MaskText(text string) (string, error) {
	rules, err := loadRulesOrDefault(DefaultRulesPath)
	if err != nil {
		return "", fmt.Errorf("failed to load rules: %w", err)
	}

	detector, err := core.NewDetector(rules, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build detector: %w", err)
	}

	engine := core.NewMaskingEngine(core.MaskingRulesFrom(rules), nil)
	return core.ApplyMasks(text, detector.FindMatches(text), engine), nil
}

// MaskValue masks a single value as the given category using the
// default rule table
func MaskValue(value string, category core.PIICategory) string {
	engine := core.NewMaskingEngine(nil, nil)
	return engine.Mask(value, category)
}

// loadRulesOrDefault falls back to the built-in tables when the rules
// file is not shipped alongside the binary
func loadRulesOrDefault(path string) (*core.RulesConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return core.DefaultRules(), nil
	}
	return core.LoadRules(path)
}
