package simulation

import (
	"context"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/random"
)

// ErrStepNotFound is returned when the path has no step for the simulation.
var ErrStepNotFound = errors.NewSentinel("path has no step for this simulation")

const chatIDLength = 20

// StartChat creates an active chat for the simulation. When pathID is set, the
// chat is bound to the matching path step and one attempt is consumed up front,
// per the attempt rules of the path repository.
func (r *Runner) StartChat(ctx context.Context, userID []byte, simulationID int64, pathID *int64) (*models.Chat, error) {
	if _, err := r.simulations.Get(ctx, simulationID); err != nil {
		return nil, errors.Wrap(err, "load simulation")
	}

	var pathSimulationID *int64
	if pathID != nil {
		path, err := r.paths.Get(ctx, *pathID)
		if err != nil {
			return nil, errors.Wrap(err, "load path")
		}
		var step *models.PathSimulation
		for i := range path.Steps {
			if path.Steps[i].SimulationID == simulationID {
				step = &path.Steps[i]
				break
			}
		}
		if step == nil {
			return nil, ErrStepNotFound
		}
		if _, err = r.paths.StartAttempt(ctx, path.ID, *step, userID); err != nil {
			return nil, errors.Wrap(err, "start attempt")
		}
		pathSimulationID = &step.ID
	}

	id, err := random.Letters(chatIDLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate chat id")
	}
	chat := models.Chat{
		ID:               id,
		SimulationID:     simulationID,
		UserID:           userID,
		Status:           models.ChatStatusActive,
		Messages:         []models.Message{},
		PathID:           pathID,
		PathSimulationID: pathSimulationID,
	}
	if err = r.chats.Create(ctx, &chat); err != nil {
		return nil, errors.Wrap(err, "create chat")
	}
	return &chat, nil
}
