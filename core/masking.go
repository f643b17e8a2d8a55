package core

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// MaskingStrategy defines how a PII value is transformed
type MaskingStrategy string

const (
	// StrategyFullMask replaces every character with the replacement char
	StrategyFullMask MaskingStrategy = "full_mask"

	// StrategyPartialMask keeps the first/last characters and masks the middle
	StrategyPartialMask MaskingStrategy = "partial_mask"

	// StrategyHash replaces the value with a truncated SHA-256 digest
	StrategyHash MaskingStrategy = "hash"

	// StrategyTokenize replaces the value with a TOKEN_<CATEGORY>_<hash> token
	StrategyTokenize MaskingStrategy = "tokenize"

	// StrategyRedact replaces the value with a [REDACTED_<CATEGORY>] label
	StrategyRedact MaskingStrategy = "redact"

	// StrategyFormatPreserve masks content while keeping the value's shape
	StrategyFormatPreserve MaskingStrategy = "format_preserve"
)

// DefaultReplacementChar is used when a rule does not specify one
const DefaultReplacementChar = "*"

// MaskingRule describes how values of one PII category are masked
type MaskingRule struct {
	Category        PIICategory
	Strategy        MaskingStrategy
	ShowFirst       int
	ShowLast        int
	ReplacementChar string
}

var (
	ssnFormatted = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}`)
	ssnBare      = regexp.MustCompile(`^\d{9}`)
	alphanumeric = regexp.MustCompile(`[a-zA-Z0-9]`)
	digit        = regexp.MustCompile(`\d`)
)

// MaskingEngine applies masking rules to PII values. The rule registry
// is read-only after construction; ReplaceRules swaps the whole
// registry atomically, there is no per-rule mutation.
type MaskingEngine struct {
	mu    sync.RWMutex
	rules map[PIICategory]MaskingRule
	vault *TokenVault
}

// NewMaskingEngine creates an engine from the default rule table with
// custom rules overlaid per category. A nil vault disables token
// recording for the TOKENIZE strategy.
func NewMaskingEngine(custom map[PIICategory]MaskingRule, vault *TokenVault) *MaskingEngine {
	rules := DefaultMaskingRules()
	for category, rule := range custom {
		rules[category] = rule
	}

	return &MaskingEngine{
		rules: rules,
		vault: vault,
	}
}

// DefaultMaskingRules returns the built-in rule table, one rule per
// category
func DefaultMaskingRules() map[PIICategory]MaskingRule {
	return MaskingRulesFrom(DefaultRules())
}

// MaskingRulesFrom converts the serialized masking rules of a
// RulesConfig into a registry map
func MaskingRulesFrom(cfg *RulesConfig) map[PIICategory]MaskingRule {
	rules := make(map[PIICategory]MaskingRule, len(cfg.MaskingRules))
	for _, rc := range cfg.MaskingRules {
		category := PIICategory(rc.Category)
		rules[category] = MaskingRule{
			Category:        category,
			Strategy:        MaskingStrategy(rc.Strategy),
			ShowFirst:       rc.ShowFirst,
			ShowLast:        rc.ShowLast,
			ReplacementChar: rc.ReplacementChar,
		}
	}
	return rules
}

// ReplaceRules swaps the entire rule registry. This is the only
// mutation the engine supports; callers must hand over a complete
// table, never edit the old one in place.
func (e *MaskingEngine) ReplaceRules(rules map[PIICategory]MaskingRule) {
	replacement := make(map[PIICategory]MaskingRule, len(rules))
	for category, rule := range rules {
		replacement[category] = rule
	}

	e.mu.Lock()
	e.rules = replacement
	e.mu.Unlock()
}

// Rule returns the registered rule for a category
func (e *MaskingEngine) Rule(category PIICategory) (MaskingRule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rule, ok := e.rules[category]
	return rule, ok
}

// Mask applies the registered masking rule for the category to the
// value. Empty values and categories without a registered rule are
// returned unchanged; this is a no-op, not an error.
func (e *MaskingEngine) Mask(value string, category PIICategory) string {
	if value == "" {
		return value
	}

	rule, ok := e.Rule(category)
	if !ok {
		return value
	}

	replacement := rule.ReplacementChar
	if replacement == "" {
		replacement = DefaultReplacementChar
	}

	switch rule.Strategy {
	case StrategyFullMask:
		return strings.Repeat(replacement, len(value))

	case StrategyPartialMask:
		return partialMask(value, rule.ShowFirst, rule.ShowLast, replacement)

	case StrategyHash:
		return hashValue(value)

	case StrategyTokenize:
		token := tokenizeValue(value, category)
		if e.vault != nil {
			e.vault.Record(token, value, category)
		}
		return token

	case StrategyRedact:
		return fmt.Sprintf("[REDACTED_%s]", category)

	case StrategyFormatPreserve:
		return formatPreserveMask(value, category, replacement)
	}

	return value
}

// partialMask keeps the first/last characters and masks the middle.
// When the visible spans would cover or overlap the whole value, the
// value is fully masked instead; the guard keeps the middle span from
// going negative.
func partialMask(value string, showFirst, showLast int, replacement string) string {
	if len(value) <= showFirst+showLast {
		return strings.Repeat(replacement, len(value))
	}

	first := value[:showFirst]
	last := ""
	if showLast > 0 {
		last = value[len(value)-showLast:]
	}
	middle := strings.Repeat(replacement, len(value)-showFirst-showLast)

	return first + middle + last
}

// hashValue returns the first 16 hex characters of the value's SHA-256
// digest. No salt: identical inputs produce identical outputs, which
// permits joins and dedup on masked values at the cost of dictionary
// reversal when the value space is small.
func hashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:])[:16]
}

// tokenizeValue formats a deterministic token. MD5 keeps the token
// visibly distinct from the SHA-256 output of the hash strategy.
func tokenizeValue(value string, category PIICategory) string {
	hash := md5.Sum([]byte(value))
	return fmt.Sprintf("TOKEN_%s_%s", category, hex.EncodeToString(hash[:])[:8])
}

// formatPreserveMask masks content while keeping the value's shape
func formatPreserveMask(value string, category PIICategory, replacement string) string {
	switch category {
	case CategorySSN:
		if ssnFormatted.MatchString(value) {
			return strings.Repeat(replacement, 3) + "-" + strings.Repeat(replacement, 2) + "-" + strings.Repeat(replacement, 4)
		}
		if ssnBare.MatchString(value) {
			return strings.Repeat(replacement, 9)
		}

	case CategoryPhone:
		return digit.ReplaceAllString(value, replacement)

	case CategoryCreditCard:
		if len(value) >= 4 {
			return strings.Repeat(replacement, len(value)-4) + value[len(value)-4:]
		}
	}

	// Default: mask alphanumerics, keep punctuation and whitespace
	return alphanumeric.ReplaceAllString(value, replacement)
}
