package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskFullMask(t *testing.T) {
	engine := NewMaskingEngine(map[PIICategory]MaskingRule{
		CategoryName: {Category: CategoryName, Strategy: StrategyFullMask},
	}, nil)

	assert.Equal(t, "********", engine.Mask("Jane Doe", CategoryName))

	// Custom replacement character
	engine = NewMaskingEngine(map[PIICategory]MaskingRule{
		CategoryName: {Category: CategoryName, Strategy: StrategyFullMask, ReplacementChar: "#"},
	}, nil)
	assert.Equal(t, "####", engine.Mask("Jane", CategoryName))
}

func TestMaskPartialMask(t *testing.T) {
	engine := NewMaskingEngine(nil, nil)

	tests := []struct {
		name     string
		value    string
		category PIICategory
		expected string
	}{
		{
			name:     "email keeps first two characters",
			value:    "jane.doe@example.com",
			category: CategoryEmail,
			expected: "ja******************",
		},
		{
			name:     "phone keeps first three and last two",
			value:    "5551234567",
			category: CategoryPhone,
			expected: "555*****67",
		},
		{
			name:     "credit card default rule keeps last four",
			value:    "4111111111111111",
			category: CategoryCreditCard,
			expected: "************1111",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, engine.Mask(tc.value, tc.category))
		})
	}
}

func TestMaskPartialMaskShortValue(t *testing.T) {
	// NAME keeps first and last characters; a two character value would
	// have nothing left to hide, so the whole value is masked instead
	engine := NewMaskingEngine(nil, nil)

	assert.Equal(t, "**", engine.Mask("Al", CategoryName))
	assert.Equal(t, "*", engine.Mask("A", CategoryName))
	assert.Equal(t, "J**e", engine.Mask("Jane", CategoryName))
}

func TestMaskHash(t *testing.T) {
	engine := NewMaskingEngine(map[PIICategory]MaskingRule{
		CategoryEmail: {Category: CategoryEmail, Strategy: StrategyHash},
	}, nil)

	masked := engine.Mask("jane.doe@example.com", CategoryEmail)
	assert.Len(t, masked, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", masked)

	// Unsalted: identical inputs produce identical digests
	assert.Equal(t, masked, engine.Mask("jane.doe@example.com", CategoryEmail))
	assert.NotEqual(t, masked, engine.Mask("john.doe@example.com", CategoryEmail))
}

func TestMaskTokenize(t *testing.T) {
	engine := NewMaskingEngine(map[PIICategory]MaskingRule{
		CategoryEmail: {Category: CategoryEmail, Strategy: StrategyTokenize},
	}, nil)

	value := "jane.doe@example.com"
	token := engine.Mask(value, CategoryEmail)

	hash := md5.Sum([]byte(value))
	expected := fmt.Sprintf("TOKEN_EMAIL_%s", hex.EncodeToString(hash[:])[:8])
	assert.Equal(t, expected, token)

	// Deterministic
	assert.Equal(t, token, engine.Mask(value, CategoryEmail))
}

func TestMaskTokenizeRecordsInVault(t *testing.T) {
	vault := NewTokenVault(VaultConfig{})
	engine := NewMaskingEngine(map[PIICategory]MaskingRule{
		CategorySSN: {Category: CategorySSN, Strategy: StrategyTokenize},
	}, vault)

	token := engine.Mask("123-45-6789", CategorySSN)
	assert.True(t, strings.HasPrefix(token, "TOKEN_SSN_"))

	original, err := vault.Detokenize(token)
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", original)
}

func TestMaskRedact(t *testing.T) {
	engine := NewMaskingEngine(nil, nil)

	assert.Equal(t, "[REDACTED_SALARY]", engine.Mask("95000", CategorySalary))
	assert.Equal(t, "[REDACTED_DATE_OF_BIRTH]", engine.Mask("01/15/1990", CategoryDateOfBirth))
	assert.Equal(t, "[REDACTED_AGE]", engine.Mask("34", CategoryAge))
}

func TestMaskFormatPreserve(t *testing.T) {
	engine := NewMaskingEngine(map[PIICategory]MaskingRule{
		CategorySSN:        {Category: CategorySSN, Strategy: StrategyFormatPreserve},
		CategoryPhone:      {Category: CategoryPhone, Strategy: StrategyFormatPreserve},
		CategoryCreditCard: {Category: CategoryCreditCard, Strategy: StrategyFormatPreserve},
		CategoryAddress:    {Category: CategoryAddress, Strategy: StrategyFormatPreserve},
	}, nil)

	tests := []struct {
		name     string
		value    string
		category PIICategory
		expected string
	}{
		{"formatted ssn", "123-45-6789", CategorySSN, "***-**-****"},
		{"bare ssn", "123456789", CategorySSN, "*********"},
		{"phone keeps punctuation", "(555) 123-4567", CategoryPhone, "(***) ***-****"},
		{"credit card keeps last four", "4111111111111111", CategoryCreditCard, "************1111"},
		{"short card number fully masked", "411", CategoryCreditCard, "***"},
		{"default masks alphanumerics only", "12 Main St.", CategoryAddress, "** **** **."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, engine.Mask(tc.value, tc.category))
		})
	}
}

func TestMaskNoOpCases(t *testing.T) {
	engine := NewMaskingEngine(nil, nil)

	// Empty values pass through untouched
	assert.Equal(t, "", engine.Mask("", CategorySSN))

	// Categories without a registered rule pass through untouched
	assert.Equal(t, "anything", engine.Mask("anything", PIICategory("UNKNOWN")))
	assert.Equal(t, "clean", engine.Mask("clean", CategoryNone))
}

func TestReplaceRules(t *testing.T) {
	engine := NewMaskingEngine(nil, nil)
	assert.Equal(t, "***-**-****", engine.Mask("123-45-6789", CategorySSN))

	// The swap hands over a complete table; every category outside it
	// loses its rule
	engine.ReplaceRules(map[PIICategory]MaskingRule{
		CategoryEmail: {Category: CategoryEmail, Strategy: StrategyFullMask},
	})

	assert.Equal(t, "****************", engine.Mask("jane@example.com", CategoryEmail))
	assert.Equal(t, "123-45-6789", engine.Mask("123-45-6789", CategorySSN))

	_, ok := engine.Rule(CategorySSN)
	assert.False(t, ok)
}

func TestDefaultMaskingRulesCoverAllCategories(t *testing.T) {
	rules := DefaultMaskingRules()
	for _, category := range AllCategories {
		_, ok := rules[category]
		assert.True(t, ok, "missing default rule for %s", category)
	}
}
