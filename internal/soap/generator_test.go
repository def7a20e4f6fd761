package soap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name     string
		note     *Note
		expected float64
	}{
		{
			name: "all six sections filled",
			note: &Note{
				Subjective: "s",
				Objective:  "o",
				Assessment: "a",
				Plan:       "p",
				ICD10Codes: []string{"J06.9"},
				CPTCodes:   []string{"99213"},
			},
			expected: 100,
		},
		{
			name:     "empty note",
			note:     &Note{},
			expected: 0,
		},
		{
			name: "narrative only, no codes",
			note: &Note{
				Subjective: "s",
				Objective:  "o",
				Assessment: "a",
				Plan:       "p",
			},
			expected: 4.0 / 6.0 * 100,
		},
		{
			name: "half complete",
			note: &Note{
				Subjective: "s",
				Assessment: "a",
				ICD10Codes: []string{"J06.9"},
			},
			expected: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Completeness(tt.note), 0.001)
		})
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	g := NewGenerator("")

	_, err := g.Generate(context.Background(), "transcription", "cough")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestModelName(t *testing.T) {
	g := NewGenerator("key")

	assert.NotEmpty(t, g.ModelName())
}
