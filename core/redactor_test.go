package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftsec/lakesweep/utils"
)

func TestApplyMasks(t *testing.T) {
	detector, err := NewDetector(DefaultRules(), nil)
	require.NoError(t, err)
	engine := NewMaskingEngine(nil, nil)

	text := "Reach jane@example.com, SSN 123-45-6789"
	masked := ApplyMasks(text, detector.FindMatches(text), engine)

	assert.Equal(t, "Reach ja**************, SSN ***-**-****", masked)
}

func TestApplyMasksNoMatches(t *testing.T) {
	engine := NewMaskingEngine(nil, nil)
	text := "nothing sensitive here"
	assert.Equal(t, text, ApplyMasks(text, nil, engine))
}

func TestApplyMasksOutOfOrderMatches(t *testing.T) {
	engine := NewMaskingEngine(map[PIICategory]MaskingRule{
		CategorySSN:   {Category: CategorySSN, Strategy: StrategyFormatPreserve},
		CategoryEmail: {Category: CategoryEmail, Strategy: StrategyRedact},
	}, nil)

	text := "a@b.co then 123-45-6789"
	matches := []utils.Match{
		{StartIndex: 12, EndIndex: 23, Value: "123-45-6789", Category: string(CategorySSN)},
		{StartIndex: 0, EndIndex: 6, Value: "a@b.co", Category: string(CategoryEmail)},
	}

	masked := ApplyMasks(text, matches, engine)
	assert.Equal(t, "[REDACTED_EMAIL] then ***-**-****", masked)
}

func TestApplyMasksOverlappingMatchesKeepEarlier(t *testing.T) {
	engine := NewMaskingEngine(map[PIICategory]MaskingRule{
		CategoryPhone: {Category: CategoryPhone, Strategy: StrategyFullMask},
		CategorySSN:   {Category: CategorySSN, Strategy: StrategyRedact},
	}, nil)

	text := "5551234567"
	matches := []utils.Match{
		{StartIndex: 0, EndIndex: 10, Value: "5551234567", Category: string(CategoryPhone)},
		{StartIndex: 3, EndIndex: 10, Value: "1234567", Category: string(CategorySSN)},
	}

	masked := ApplyMasks(text, matches, engine)
	assert.Equal(t, "**********", masked)
}
