package prompt_test

import (
	"testing"

	"github.com/simcoach/simcoach/internal/prompt"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "substitutes known tokens",
			template: "Mood {{MOOD}} at {{MOOD_LEVEL}}",
			vars:     map[string]string{"MOOD": "Frustrated", "MOOD_LEVEL": "45"},
			want:     "Mood Frustrated at 45",
		},
		{
			name:     "unknown tokens left verbatim",
			template: "Hello {{NAME}}, objective: {{OBJECTIVE}}",
			vars:     map[string]string{"OBJECTIVE": "de-escalate"},
			want:     "Hello {{NAME}}, objective: de-escalate",
		},
		{
			name:     "no vars",
			template: "{{CHARACTER}}",
			vars:     nil,
			want:     "{{CHARACTER}}",
		},
		{
			name:     "repeated token",
			template: "{{X}} and {{X}}",
			vars:     map[string]string{"X": "y"},
			want:     "y and y",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, prompt.Render(tt.template, tt.vars))
		})
	}
}

func TestAppendMissing(t *testing.T) {
	rendered := "You are Riikka. Objective: calm down."
	out := prompt.AppendMissing(rendered, []prompt.Section{
		{Title: "Objective", Value: "calm down"},        // already present, skipped
		{Title: "Context", Value: "support line"},       // appended
		{Title: "Rules", Value: ""},                     // empty, skipped
		{Title: "Keypoints", Value: "character_1: foo"}, // appended
	})
	require.Equal(t,
		"You are Riikka. Objective: calm down.\n\nContext:\nsupport line\n\nKeypoints:\ncharacter_1: foo",
		out)
}

func TestEnumerateKeypoints(t *testing.T) {
	out := prompt.EnumerateKeypoints("player", []string{"apologize", "offer a date"})
	require.Equal(t, "player_1: apologize\nplayer_2: offer a date", out)
	require.Empty(t, prompt.EnumerateKeypoints("player", nil))
}
