package core

import (
	"time"
)

// RulesBuilder provides a fluent interface for creating detection rule sets
type RulesBuilder struct {
	cfg *RulesConfig
}

// NewRulesBuilder creates a new rules builder
func NewRulesBuilder() *RulesBuilder {
	return &RulesBuilder{
		cfg: &RulesConfig{
			Metadata: RulesMetadata{
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			NameRules:    []NameRule{},
			ContentRules: []ContentRule{},
			MaskingRules: []MaskingRuleConfig{},
		},
	}
}

// WithMetadata sets the rule set metadata
func (b *RulesBuilder) WithMetadata(version, description, author string) *RulesBuilder {
	b.cfg.Metadata.Version = version
	b.cfg.Metadata.Description = description
	b.cfg.Metadata.Author = author
	return b
}

// AddNameRule adds a column-name rule for a category
func (b *RulesBuilder) AddNameRule(category PIICategory, substrings ...string) *RulesBuilder {
	b.cfg.NameRules = append(b.cfg.NameRules, NameRule{
		Category:   string(category),
		Substrings: substrings,
	})
	return b
}

// AddContentRule adds a content regex rule for a category
func (b *RulesBuilder) AddContentRule(category PIICategory, pattern string) *RulesBuilder {
	b.cfg.ContentRules = append(b.cfg.ContentRules, ContentRule{
		Category: string(category),
		Pattern:  pattern,
	})
	return b
}

// AddMaskingRule adds a masking rule for a category
func (b *RulesBuilder) AddMaskingRule(category PIICategory, strategy MaskingStrategy) *RulesBuilder {
	b.cfg.MaskingRules = append(b.cfg.MaskingRules, MaskingRuleConfig{
		Category: string(category),
		Strategy: string(strategy),
	})
	return b
}

// ConfigureLastMaskingRule configures additional properties for the
// last added masking rule
func (b *RulesBuilder) ConfigureLastMaskingRule() *MaskingRuleConfigurator {
	if len(b.cfg.MaskingRules) == 0 {
		b.cfg.MaskingRules = append(b.cfg.MaskingRules, MaskingRuleConfig{})
	}

	return &MaskingRuleConfigurator{
		builder: b,
		rule:    &b.cfg.MaskingRules[len(b.cfg.MaskingRules)-1],
	}
}

// Build validates and returns the final rule set
func (b *RulesBuilder) Build() (*RulesConfig, error) {
	b.cfg.Metadata.UpdatedAt = time.Now()

	if err := validateRules(b.cfg); err != nil {
		return nil, err
	}

	return b.cfg, nil
}

// MaskingRuleConfigurator provides methods to configure a masking rule
type MaskingRuleConfigurator struct {
	builder *RulesBuilder
	rule    *MaskingRuleConfig
}

// ShowFirst sets how many leading characters stay visible
func (c *MaskingRuleConfigurator) ShowFirst(n int) *MaskingRuleConfigurator {
	c.rule.ShowFirst = n
	return c
}

// ShowLast sets how many trailing characters stay visible
func (c *MaskingRuleConfigurator) ShowLast(n int) *MaskingRuleConfigurator {
	c.rule.ShowLast = n
	return c
}

// WithReplacementChar sets the replacement character
func (c *MaskingRuleConfigurator) WithReplacementChar(ch string) *MaskingRuleConfigurator {
	c.rule.ReplacementChar = ch
	return c
}

// Done returns to the rules builder
func (c *MaskingRuleConfigurator) Done() *RulesBuilder {
	return c.builder
}
