package ai_test

import (
	"testing"

	"github.com/simcoach/simcoach/internal/ai"
	"github.com/stretchr/testify/require"
)

func TestIsReasoningModel(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o-mini", false},
		{"gpt-4.1", false},
		{"gpt-5", true},
		{"gpt-5-mini", true},
		{"o1-preview", true},
		{"o3-mini", true},
		{"o4-mini", true},
		{"davinci", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			require.Equal(t, tt.want, ai.IsReasoningModel(tt.model))
		})
	}
}
