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

func TestSimulationRepository_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repositories.NewSimulationRepository(newTestDB(t), testhelpers.NewLogger(os.Stderr))

	simulation := &models.Simulation{
		Name:               "Contract renewal pushback",
		Objective:          "Retain the customer without discounting more than 10%.",
		Context:            "Renewal call two weeks before contract end.",
		CharacterID:        1,
		AISettingID:        1,
		CharacterKeypoints: []string{"Mentions a cheaper competitor offer"},
		PlayerKeypoints:    []string{"Quantifies the value of staying", "Offers a concrete next step"},
		MaxInteractions:    8,
	}
	require.NoError(t, repo.Create(ctx, simulation))
	require.NotZero(t, simulation.ID)

	fetched, err := repo.Get(ctx, simulation.ID)
	require.NoError(t, err)
	require.Equal(t, simulation, fetched)

	simulation.PlayerKeypoints = nil
	simulation.MaxInteractions = 12
	require.NoError(t, repo.Update(ctx, *simulation))
	fetched, err = repo.Get(ctx, simulation.ID)
	require.NoError(t, err)
	require.Empty(t, fetched.PlayerKeypoints)
	require.Equal(t, 12, fetched.MaxInteractions)

	simulations, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, simulations, 2)

	require.NoError(t, repo.Delete(ctx, simulation.ID))
	_, err = repo.Get(ctx, simulation.ID)
	require.ErrorIs(t, err, repositories.ErrNotFound)
}
