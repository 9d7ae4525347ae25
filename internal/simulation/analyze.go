package simulation

import (
	"context"
	"strings"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/llmjson"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/prompt"
)

var (
	// ErrChatActive is returned when analysis is requested before the chat concludes.
	ErrChatActive = errors.NewSentinel("chat is still active")
	// ErrAnalysisDisabled is returned when the prompt set has no analysis prompt.
	ErrAnalysisDisabled = errors.NewSentinel("analysis prompt not configured")
)

// Analyze scores a concluded chat and persists the report. Re-running replaces
// the previous report; the chat status is never affected.
func (r *Runner) Analyze(ctx context.Context, chatID string, userID []byte) (*models.Analysis, error) {
	session, err := r.LoadSession(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if session.Chat.Status == models.ChatStatusActive {
		return nil, ErrChatActive
	}
	if session.PromptSet.AnalysisPrompt == "" {
		return nil, ErrAnalysisDisabled
	}

	var playerMessages []string
	for _, message := range session.Chat.Messages {
		if message.Role == models.RoleUser {
			playerMessages = append(playerMessages, message.Content)
		}
	}
	transcript := strings.Join(playerMessages, "\n\n")
	system := prompt.Render(session.PromptSet.AnalysisPrompt, map[string]string{
		"CHARACTER":      characterDescription(session.Character),
		"PLAYER_MESSAGE": transcript,
	})

	llm := r.newLLM(*session.AISetting)
	raw, err := llm.Complete(ctx, system, transcript, true)
	if err != nil {
		return nil, errors.Wrap(err, "analysis completion")
	}
	var analysis models.Analysis
	if err = llmjson.Unmarshal(raw, &analysis); err != nil {
		return nil, errors.Wrap(err, "parse analysis")
	}
	if err = r.chats.SetAnalysis(ctx, chatID, analysis); err != nil {
		return nil, errors.Wrap(err, "persist analysis")
	}
	return &analysis, nil
}
