package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDeclaration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		reason   string
	}{
		{
			name:     "Full token run with reason",
			input:    "1d2h30m homework",
			expected: 95400,
			reason:   "homework",
		},
		{
			name:     "Minutes only",
			input:    "30m late",
			expected: 1800,
			reason:   "late",
		},
		{
			name:     "No tokens, whole input is reason",
			input:    "gone fishing",
			expected: 0,
			reason:   "gone fishing",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: 0,
			reason:   "",
		},
		{
			name:     "Tokens only, no reason",
			input:    "2h",
			expected: 7200,
			reason:   "",
		},
		{
			name: "Duplicate unit terminates the grammar",
			// Second 2d breaks the run: it belongs to the reason
			input:    "1d2d rest",
			expected: 86400,
			reason:   "2d rest",
		},
		{
			name:     "Out of order unit terminates the grammar",
			input:    "30m1d rest",
			expected: 1800,
			reason:   "1d rest",
		},
		{
			name:     "Unknown unit letter is reason text",
			input:    "5x whatever",
			expected: 0,
			reason:   "5x whatever",
		},
		{
			name:     "Bare number is reason text",
			input:    "42",
			expected: 0,
			reason:   "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			seconds, reason := ParseDeclaration(tt.input)
			req.Equal(tt.expected, seconds)
			req.Equal(tt.reason, reason)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{0, "few seconds"},
		{59, "few seconds"},
		{60, "1 minute"},
		{120, "2 minutes"},
		{3600, "1 hour"},
		{3660, "1 hour 1 minute"},
		{86400, "1 day"},
		{95400, "1 day 2 hours 30 minutes"},
		{172800, "2 days"},
		// Hours skipped when the remainder has none
		{86460, "1 day 1 minute"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatDuration(tt.seconds))
		})
	}
}
