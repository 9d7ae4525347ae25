package repositories_test

import (
	"context"
	"os"
	"testing"

	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/repositories"
	"github.com/simcoach/simcoach/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestPromptSetRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repositories.NewPromptSetRepository(newTestDB(t), testhelpers.NewLogger(os.Stderr))

	// Fixtures seed the singleton row.
	promptSet, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Contains(t, promptSet.SystemPrompt, "{{CHARACTER}}")
	require.NotEmpty(t, promptSet.MoodPrompt)

	updated := models.PromptSet{
		SystemPrompt:   "You are {{CHARACTER}}.",
		AnalysisPrompt: "Score the conversation.",
	}
	require.NoError(t, repo.Put(ctx, updated))

	promptSet, err = repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, &updated, promptSet)
	// Clearing an evaluator prompt disables the evaluation step.
	require.Empty(t, promptSet.MoodPrompt)
}
