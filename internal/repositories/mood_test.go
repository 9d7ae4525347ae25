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

func TestMoodRepository_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repositories.NewMoodRepository(newTestDB(t), testhelpers.NewLogger(os.Stderr))

	mood := &models.Mood{
		Name: "Anxious",
		Behaviors: []models.MoodBehavior{
			{ThresholdPercentage: 0, BehaviorText: "Hesitant, asks for reassurance."},
			{ThresholdPercentage: 50, BehaviorText: "Rambles, loses the thread of the conversation."},
		},
	}
	require.NoError(t, repo.Create(ctx, mood))
	require.NotZero(t, mood.ID)

	fetched, err := repo.Get(ctx, mood.ID)
	require.NoError(t, err)
	require.Equal(t, "Anxious", fetched.Name)
	require.Len(t, fetched.Behaviors, 2)
	require.Equal(t, 50, fetched.Behaviors[1].ThresholdPercentage)

	fetched.Name = "Nervous"
	fetched.Behaviors = fetched.Behaviors[:1]
	require.NoError(t, repo.Update(ctx, *fetched))
	fetched, err = repo.Get(ctx, mood.ID)
	require.NoError(t, err)
	require.Equal(t, "Nervous", fetched.Name)
	require.Len(t, fetched.Behaviors, 1)

	moods, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, moods, 2)

	require.NoError(t, repo.Delete(ctx, mood.ID))
	_, err = repo.Get(ctx, mood.ID)
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMood_ActiveBehavior(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repositories.NewMoodRepository(newTestDB(t), testhelpers.NewLogger(os.Stderr))

	// Fixture mood has bands at 0, 30 and 70.
	mood, err := repo.Get(ctx, 1)
	require.NoError(t, err)

	tests := []struct {
		intensity int
		want      string
	}{
		{0, "Calm but curt. Answers questions without volunteering detail."},
		{29, "Calm but curt. Answers questions without volunteering detail."},
		{45, "Impatient. Interrupts, sighs, demands concrete answers."},
		{70, "Openly angry. Threatens to escalate to a manager."},
		{100, "Openly angry. Threatens to escalate to a manager."},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, mood.ActiveBehavior(tt.intensity), "intensity %d", tt.intensity)
	}
}
