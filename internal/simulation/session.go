package simulation

import (
	"context"
	"fmt"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/repositories"
)

// ErrMisconfigured is returned when a chat references configuration that no
// longer exists, e.g. a deleted AI setting.
var ErrMisconfigured = errors.NewSentinel("chat configuration incomplete")

// Session is a chat loaded together with everything a turn needs: the
// simulation, the character with its mood bands, the AI setting, the prompt
// set, the rebuilt keypoint tracker, and the current mood intensity.
type Session struct {
	Chat       *models.Chat
	Simulation *models.Simulation
	Character  *models.Character
	Mood       *models.Mood
	AISetting  *models.AISetting
	PromptSet  *models.PromptSet
	Tracker    *KeypointTracker
	// MoodIntensity starts at the character baseline and follows the last
	// assistant message's mood annotation.
	MoodIntensity int
}

// LoadSession reassembles the session state for a chat. Mood intensity and the
// keypoint tracker are derived from the persisted transcript, so reloading a
// chat in a new browser tab continues exactly where it left off.
func (r *Runner) LoadSession(ctx context.Context, chatID string, userID []byte) (*Session, error) {
	chat, err := r.chats.Get(ctx, chatID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load chat")
	}
	simulation, err := r.simulations.Get(ctx, chat.SimulationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: simulation %d missing", ErrMisconfigured, chat.SimulationID)
		}
		return nil, errors.Wrap(err, "load simulation")
	}
	character, err := r.characters.Get(ctx, simulation.CharacterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: character %d missing", ErrMisconfigured, simulation.CharacterID)
		}
		return nil, errors.Wrap(err, "load character")
	}
	aiSetting, err := r.aiSettings.Get(ctx, simulation.AISettingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ai setting %d missing", ErrMisconfigured, simulation.AISettingID)
		}
		return nil, errors.Wrap(err, "load ai setting")
	}
	promptSet, err := r.promptSets.Get(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: prompt set missing", ErrMisconfigured)
		}
		return nil, errors.Wrap(err, "load prompt set")
	}

	var mood *models.Mood
	if character.MoodID != nil {
		if mood, err = r.moods.Get(ctx, *character.MoodID); err != nil &&
			!errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.Wrap(err, "load mood")
		}
	}

	session := Session{
		Chat:          chat,
		Simulation:    simulation,
		Character:     character,
		Mood:          mood,
		AISetting:     aiSetting,
		PromptSet:     promptSet,
		Tracker:       NewKeypointTracker(simulation.CharacterKeypoints, simulation.PlayerKeypoints),
		MoodIntensity: character.Intensity,
	}
	for _, message := range chat.Messages {
		session.Tracker.Mark(message.MatchedKeypoints)
		if message.Role == models.RoleAssistant && message.MoodLevel != nil {
			session.MoodIntensity = *message.MoodLevel
		}
	}
	return &session, nil
}
