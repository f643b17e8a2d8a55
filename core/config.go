package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// RulesMetadata contains information about a rules configuration
type RulesMetadata struct {
	// Version of the rules file
	Version string `yaml:"version"`

	// When the rules were created
	CreatedAt time.Time `yaml:"created_at"`

	// Last modification time
	UpdatedAt time.Time `yaml:"updated_at"`

	// Description of the rules
	Description string `yaml:"description"`

	// Author of the rules
	Author string `yaml:"author"`

	// Hash of the file content for integrity verification
	Hash string `yaml:"hash,omitempty"`
}

// NameRule maps a PII category to the substrings that identify it in a
// column or attribute name
type NameRule struct {
	Category   string   `yaml:"category"`
	Substrings []string `yaml:"substrings"`
}

// ContentRule maps a PII category to the regular expression that
// identifies it in free text
type ContentRule struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
}

// MaskingRuleConfig is the serialized form of a MaskingRule
type MaskingRuleConfig struct {
	Category        string `yaml:"category"`
	Strategy        string `yaml:"strategy"`
	ShowFirst       int    `yaml:"show_first,omitempty"`
	ShowLast        int    `yaml:"show_last,omitempty"`
	ReplacementChar string `yaml:"replacement_char,omitempty"`
}

// RulesConfig is the complete detection and masking configuration. It
// is loaded once at startup and treated as immutable afterwards; the
// detector and masking engine take their tables from it at
// construction time.
type RulesConfig struct {
	// Metadata about the rules
	Metadata RulesMetadata `yaml:"metadata"`

	// Column/attribute name detection tables
	NameRules []NameRule `yaml:"name_rules"`

	// Free-text detection patterns
	ContentRules []ContentRule `yaml:"content_rules"`

	// Per-category masking rules
	MaskingRules []MaskingRuleConfig `yaml:"masking_rules"`
}

// LoadRules reads a YAML rules file and unmarshals it into a RulesConfig
func LoadRules(path string) (*RulesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	if err := validateRules(&cfg); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	// Generate hash for integrity checking
	cfg.Metadata.Hash = calculateRulesHash(data)

	return &cfg, nil
}

// SaveRules writes a rules configuration to disk
func SaveRules(cfg *RulesConfig, path string) error {
	cfg.Metadata.UpdatedAt = time.Now()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize rules: %w", err)
	}

	cfg.Metadata.Hash = calculateRulesHash(data)

	// Re-serialize with updated hash
	data, err = yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to re-serialize rules with hash: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}

	return nil
}

// validateRules checks that every rule is complete and every content
// pattern compiles
func validateRules(cfg *RulesConfig) error {
	for i, rule := range cfg.NameRules {
		if rule.Category == "" {
			return fmt.Errorf("name rule %d has no category", i)
		}
		if len(rule.Substrings) == 0 {
			return fmt.Errorf("name rule %d (%s) has no substrings", i, rule.Category)
		}
	}

	for i, rule := range cfg.ContentRules {
		if rule.Category == "" {
			return fmt.Errorf("content rule %d has no category", i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("content rule %d (%s) has no pattern", i, rule.Category)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("content rule %d (%s) has invalid pattern: %w", i, rule.Category, err)
		}
	}

	for i, rule := range cfg.MaskingRules {
		if rule.Category == "" {
			return fmt.Errorf("masking rule %d has no category", i)
		}
		if rule.Strategy == "" {
			return fmt.Errorf("masking rule %d (%s) has no strategy", i, rule.Category)
		}
		if rule.ShowFirst < 0 || rule.ShowLast < 0 {
			return fmt.Errorf("masking rule %d (%s) has negative show_first/show_last", i, rule.Category)
		}
		if len(rule.ReplacementChar) > 1 {
			return fmt.Errorf("masking rule %d (%s) replacement_char must be a single character", i, rule.Category)
		}
	}

	return nil
}

// calculateRulesHash generates a hash of the rules content for
// integrity checking
func calculateRulesHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// DefaultRules returns the built-in detection tables and masking rules
func DefaultRules() *RulesConfig {
	return &RulesConfig{
		Metadata: RulesMetadata{
			Version:     "1.0.0",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
			Description: "Default PII detection and masking rules",
			Author:      "lakesweep",
		},
		NameRules: []NameRule{
			{Category: string(CategoryEmail), Substrings: []string{"email", "mail", "e_mail", "email_address"}},
			{Category: string(CategorySSN), Substrings: []string{"ssn", "social_security", "social_security_number", "tax_id"}},
			{Category: string(CategoryPhone), Substrings: []string{"phone", "telephone", "mobile", "cell", "phone_number", "phone-no"}},
			{Category: string(CategoryName), Substrings: []string{"first_name", "last_name", "full_name", "name", "fname", "lname", "first name", "last name"}},
			{Category: string(CategoryAddress), Substrings: []string{"address", "street", "city", "state", "zip", "postal_code"}},
			{Category: string(CategoryCreditCard), Substrings: []string{"cc_num", "credit_card", "card_number", "payment_card"}},
			{Category: string(CategoryDateOfBirth), Substrings: []string{"dob", "birth_date", "date_of_birth", "birthday"}},
			{Category: string(CategorySalary), Substrings: []string{"salary", "wage", "income", "compensation", "pay", "earnings"}},
			{Category: string(CategoryAge), Substrings: []string{"age", "birth_year", "years_old"}},
		},
		ContentRules: []ContentRule{
			{Category: string(CategoryEmail), Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`},
			{Category: string(CategorySSN), Pattern: `\b\d{3}-\d{2}-\d{4}\b`},
			{Category: string(CategoryPhone), Pattern: `\b(?:\(\d{3}\)\s?|\d{3}[-.]?)\d{3}[-.]?\d{4}\b`},
			{Category: string(CategoryCreditCard), Pattern: `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`},
			{Category: string(CategoryDateOfBirth), Pattern: `\b(0[1-9]|1[0-2])[/-](0[1-9]|[12]\d|3[01])[/-]\d{4}\b`},
		},
		MaskingRules: []MaskingRuleConfig{
			{Category: string(CategoryEmail), Strategy: string(StrategyPartialMask), ShowFirst: 2},
			{Category: string(CategorySSN), Strategy: string(StrategyFormatPreserve)},
			{Category: string(CategoryPhone), Strategy: string(StrategyPartialMask), ShowFirst: 3, ShowLast: 2},
			{Category: string(CategoryName), Strategy: string(StrategyPartialMask), ShowFirst: 1, ShowLast: 1},
			{Category: string(CategoryAddress), Strategy: string(StrategyPartialMask), ShowFirst: 3},
			{Category: string(CategoryCreditCard), Strategy: string(StrategyPartialMask), ShowLast: 4},
			{Category: string(CategoryDateOfBirth), Strategy: string(StrategyRedact)},
			{Category: string(CategorySalary), Strategy: string(StrategyRedact)},
			{Category: string(CategoryAge), Strategy: string(StrategyRedact)},
		},
	}
}
