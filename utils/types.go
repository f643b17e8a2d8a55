package utils

// Match represents a single detected span of PII inside sampled content
type Match struct {
	// Match location information
	StartIndex int
	EndIndex   int
	Value      string

	// Classification information
	Category   string
	Confidence float64

	// Tracking information
	RequestID string
}
