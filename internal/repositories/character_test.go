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

func TestCharacterRepository_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbs := newTestDB(t)
	repo := repositories.NewCharacterRepository(dbs, testhelpers.NewLogger(os.Stderr))

	moodID := int64(1)
	character := &models.Character{
		Name:        "Jari Korhonen",
		Description: "A skeptical procurement manager.",
		MoodID:      &moodID,
		Intensity:   60,
	}
	require.NoError(t, repo.Create(ctx, character))
	require.NotZero(t, character.ID)

	fetched, err := repo.Get(ctx, character.ID)
	require.NoError(t, err)
	require.Equal(t, character, fetched)

	characters, err := repo.List(ctx)
	require.NoError(t, err)
	// The fixture character plus the one just created.
	require.Len(t, characters, 2)

	character.Intensity = 80
	character.Name = "Jari K."
	require.NoError(t, repo.Update(ctx, *character))
	fetched, err = repo.Get(ctx, character.ID)
	require.NoError(t, err)
	require.Equal(t, 80, fetched.Intensity)
	require.Equal(t, "Jari K.", fetched.Name)

	require.NoError(t, repo.Delete(ctx, character.ID))
	_, err = repo.Get(ctx, character.ID)
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCharacterRepository_UpdateMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repositories.NewCharacterRepository(newTestDB(t), testhelpers.NewLogger(os.Stderr))

	err := repo.Update(ctx, models.Character{ID: 999, Name: "Nobody"})
	require.ErrorIs(t, err, repositories.ErrNotFound)
}
