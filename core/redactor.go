package core

import (
	"sort"
	"strings"

	"github.com/driftsec/lakesweep/utils"
)

// ApplyMasks rewrites text with every match replaced by its masked
// form according to the engine's rule for the match category. Matches
// are processed in start order; overlapping matches keep the earlier
// one and skip the rest.
func ApplyMasks(text string, matches []utils.Match, engine *MaskingEngine) string {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartIndex < matches[j].StartIndex
	})

	var builder strings.Builder
	lastIndex := 0

	for _, match := range matches {
		if match.StartIndex < lastIndex {
			continue
		}
		if match.StartIndex > lastIndex {
			builder.WriteString(text[lastIndex:match.StartIndex])
		}

		value := text[match.StartIndex:match.EndIndex]
		builder.WriteString(engine.Mask(value, PIICategory(match.Category)))

		lastIndex = match.EndIndex
	}

	if lastIndex < len(text) {
		builder.WriteString(text[lastIndex:])
	}

	return builder.String()
}
