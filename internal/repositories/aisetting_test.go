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

func TestAISettingRepository_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repositories.NewAISettingRepository(newTestDB(t), testhelpers.NewLogger(os.Stderr))

	setting := &models.AISetting{Name: "Production", APIKey: "sk-secret", Model: "gpt-4.1"}
	require.NoError(t, repo.Create(ctx, setting))
	require.NotZero(t, setting.ID)

	fetched, err := repo.Get(ctx, setting.ID)
	require.NoError(t, err)
	require.Equal(t, setting, fetched)

	settings, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 2)

	require.NoError(t, repo.Delete(ctx, setting.ID))
	_, err = repo.Get(ctx, setting.ID)
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAISettingRepository_UpdateKeepsKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repositories.NewAISettingRepository(newTestDB(t), testhelpers.NewLogger(os.Stderr))

	setting := &models.AISetting{Name: "Production", APIKey: "sk-secret", Model: "gpt-4.1"}
	require.NoError(t, repo.Create(ctx, setting))

	// Empty key on update leaves the stored key intact.
	require.NoError(t, repo.Update(ctx, models.AISetting{ID: setting.ID, Name: "Production", Model: "gpt-5-mini"}))
	fetched, err := repo.Get(ctx, setting.ID)
	require.NoError(t, err)
	require.Equal(t, "sk-secret", fetched.APIKey)
	require.Equal(t, "gpt-5-mini", fetched.Model)

	// A non-empty key replaces it.
	require.NoError(t, repo.Update(ctx, models.AISetting{ID: setting.ID, Name: "Production", APIKey: "sk-rotated", Model: "gpt-5-mini"}))
	fetched, err = repo.Get(ctx, setting.ID)
	require.NoError(t, err)
	require.Equal(t, "sk-rotated", fetched.APIKey)
}
