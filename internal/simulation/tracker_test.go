package simulation_test

import (
	"testing"

	"github.com/simcoach/simcoach/internal/simulation"
	"github.com/stretchr/testify/require"
)

func TestKeypointTracker(t *testing.T) {
	t.Parallel()
	tracker := simulation.NewKeypointTracker(
		[]string{"mentions the delay", "mentions the refund"},
		[]string{"apologizes"},
	)
	require.False(t, tracker.AllMatched())

	newly := tracker.Mark([]string{"character_1", "player_1"})
	require.Equal(t, []string{"character_1", "player_1"}, newly)
	require.False(t, tracker.AllMatched())

	// Re-matching is idempotent and unknown ids are ignored.
	newly = tracker.Mark([]string{"character_1", "character_9", "nonsense"})
	require.Empty(t, newly)

	newly = tracker.Mark([]string{"character_2"})
	require.Equal(t, []string{"character_2"}, newly)
	require.True(t, tracker.AllMatched())
	require.Equal(t, []string{"character_1", "character_2", "player_1"}, tracker.Matched())
}

func TestKeypointTracker_NoKeypointsNeverCompletes(t *testing.T) {
	t.Parallel()
	tracker := simulation.NewKeypointTracker(nil, nil)
	require.False(t, tracker.AllMatched())
	require.Empty(t, tracker.Mark([]string{"character_1"}))
}
