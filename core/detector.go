package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/driftsec/lakesweep/utils"
)

// NameMatchConfidence is the flat score assigned to every category
// matched from an identifier name. The match is a substring test, so
// there is no per-match quality signal to score against.
const NameMatchConfidence = 0.8

// PatternMatchConfidence is the flat score assigned to categories
// matched by a content regex.
const PatternMatchConfidence = 0.7

// maxRecognizerChars caps how much content is submitted to the external
// entity recognizer per unit.
const maxRecognizerChars = 5000

// Entity is a single result from an external entity recognizer
type Entity struct {
	// Provider-specific label, e.g. "CREDIT_DEBIT_NUMBER"
	Label string

	// Provider confidence in [0, 1]
	Score float64
}

// EntityRecognizer is the optional external NER collaborator. A nil
// recognizer, a disabled flag, or a failing call all degrade to
// pattern-only detection; they never fail a scan.
type EntityRecognizer interface {
	DetectEntities(ctx context.Context, text string, languageCode string) ([]Entity, error)
}

// recognizerLabels maps provider entity labels onto our categories.
// Labels outside this table are ignored.
var recognizerLabels = map[string]PIICategory{
	"EMAIL":               CategoryEmail,
	"SSN":                 CategorySSN,
	"PHONE":               CategoryPhone,
	"CREDIT_DEBIT_NUMBER": CategoryCreditCard,
	"DATE_TIME":           CategoryDateOfBirth,
}

type contentPattern struct {
	category PIICategory
	regex    *regexp.Regexp
}

// Detector infers PII categories from identifier names and free text
// using the tables of a RulesConfig. It is immutable after
// construction and safe for concurrent use.
type Detector struct {
	nameOrder    []PIICategory
	namePatterns map[PIICategory][]string
	content      []contentPattern
	recognizer   EntityRecognizer
}

// NewDetector builds a detector from the given rules. The recognizer
// may be nil; DetectInText then never attempts the external step.
func NewDetector(cfg *RulesConfig, recognizer EntityRecognizer) (*Detector, error) {
	if cfg == nil {
		cfg = DefaultRules()
	}

	d := &Detector{
		nameOrder:    make([]PIICategory, 0, len(cfg.NameRules)),
		namePatterns: make(map[PIICategory][]string, len(cfg.NameRules)),
		content:      make([]contentPattern, 0, len(cfg.ContentRules)),
		recognizer:   recognizer,
	}

	for _, rule := range cfg.NameRules {
		category := PIICategory(rule.Category)
		if _, dup := d.namePatterns[category]; !dup {
			d.nameOrder = append(d.nameOrder, category)
		}
		d.namePatterns[category] = append(d.namePatterns[category], rule.Substrings...)
	}

	for _, rule := range cfg.ContentRules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid content pattern for %s: %w", rule.Category, err)
		}
		d.content = append(d.content, contentPattern{
			category: PIICategory(rule.Category),
			regex:    re,
		})
	}

	return d, nil
}

// DetectByName infers PII categories from a column or attribute name.
// The name is lower-cased and trimmed, then each category's substrings
// are tested for containment; a category matches if any of its
// substrings occurs anywhere in the normalized name. Matches are not
// mutually exclusive. Empty or whitespace-only names yield an empty
// result.
func (d *Detector) DetectByName(name string) ([]PIICategory, map[PIICategory]float64) {
	var categories []PIICategory
	confidence := make(map[PIICategory]float64)

	normalized := strings.TrimSpace(strings.ToLower(name))
	if normalized == "" {
		return categories, confidence
	}

	for _, category := range d.nameOrder {
		for _, substring := range d.namePatterns[category] {
			if strings.Contains(normalized, substring) {
				categories = append(categories, category)
				confidence[category] = NameMatchConfidence
				break
			}
		}
	}

	return categories, confidence
}

// DetectInText infers PII categories from free text. Pattern matching
// always runs; the external recognizer runs only when enabled and
// configured, and its scores are max-merged with the pattern scores.
// Recognizer failures are logged and swallowed: the pattern-based
// result is always returned.
func (d *Detector) DetectInText(ctx context.Context, content string, enableRecognizer bool) ([]PIICategory, map[PIICategory]float64) {
	var categories []PIICategory
	confidence := make(map[PIICategory]float64)

	if strings.TrimSpace(content) == "" {
		return categories, confidence
	}

	for _, pattern := range d.content {
		if pattern.regex.MatchString(content) {
			categories = append(categories, pattern.category)
			confidence[pattern.category] = PatternMatchConfidence
		}
	}

	if enableRecognizer && d.recognizer != nil {
		sample := content
		if len(sample) > maxRecognizerChars {
			sample = sample[:maxRecognizerChars]
		}

		entities, err := d.recognizer.DetectEntities(ctx, sample, "en")
		if err != nil {
			LogScanEvent("", "recognizer_failed", SeverityWarning, "", map[string]string{
				"error": err.Error(),
			})
			return categories, confidence
		}

		for _, entity := range entities {
			category, ok := recognizerLabels[entity.Label]
			if !ok {
				continue
			}
			if _, seen := confidence[category]; !seen {
				categories = append(categories, category)
			}
			if entity.Score > confidence[category] {
				confidence[category] = entity.Score
			}
		}
	}

	return categories, confidence
}

// FindMatches locates every content-pattern match in the text with its
// position, for building masked previews. The external recognizer is
// not consulted: it returns labels, not spans.
func (d *Detector) FindMatches(content string) []utils.Match {
	var matches []utils.Match

	if content == "" {
		return matches
	}

	for _, pattern := range d.content {
		locs := pattern.regex.FindAllStringIndex(content, -1)
		for _, loc := range locs {
			matches = append(matches, utils.Match{
				StartIndex: loc[0],
				EndIndex:   loc[1],
				Value:      content[loc[0]:loc[1]],
				Category:   string(pattern.category),
				Confidence: PatternMatchConfidence,
			})
		}
	}

	return matches
}
