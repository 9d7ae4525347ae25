package simulation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/llmjson"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/prompt"
)

func characterDescription(character *models.Character) string {
	return character.Name + "\n" + character.Description
}

// systemPrompt renders the character system prompt for the next assistant
// reply. Values missing from older templates are appended as fallback sections.
func systemPrompt(session *Session) string {
	simulation := session.Simulation
	var history []string
	for _, message := range session.Chat.Messages {
		if message.Role == models.RoleAssistant {
			history = append(history, message.Content)
		}
	}
	moodName := ""
	moodDetail := ""
	if session.Mood != nil {
		moodName = session.Mood.Name
		moodDetail = session.Mood.ActiveBehavior(session.MoodIntensity)
	}
	keypoints := prompt.EnumerateKeypoints(CharacterNamespace, simulation.CharacterKeypoints)
	vars := map[string]string{
		"CHARACTER":            characterDescription(session.Character),
		"OBJECTIVE":            simulation.Objective,
		"CONTEXT":              simulation.Context,
		"RULES":                simulation.Rules,
		"KEYPOINTS":            keypoints,
		"MOOD":                 moodName,
		"MOOD_LEVEL":           strconv.Itoa(session.MoodIntensity),
		"MOOD_DETAIL":          moodDetail,
		"CONVERSATION_HISTORY": prompt.FormatHistory(history),
	}
	rendered := prompt.Render(session.PromptSet.SystemPrompt, vars)
	return prompt.AppendMissing(rendered, []prompt.Section{
		{Title: "Objective", Value: simulation.Objective},
		{Title: "Context", Value: simulation.Context},
		{Title: "Rules", Value: simulation.Rules},
		{Title: "Facts you should surface", Value: keypoints},
		{Title: "Current behavior", Value: moodDetail},
	})
}

// streamAssistant streams the character reply, forwarding each delta to the
// event feed, and returns the accumulated text. Once the consumer goes away
// the remaining deltas are drained and dropped so the stream can finish.
func (r *Runner) streamAssistant(ctx context.Context, llm LLM, session *Session, content string, events chan<- Event) (string, error) {
	chunks := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		forwarding := true
		for delta := range chunks {
			if forwarding {
				forwarding = r.emit(ctx, events, Event{Type: EventChunk, Content: delta})
			}
		}
	}()
	reply, err := llm.Stream(ctx, systemPrompt(session), content, chunks)
	close(chunks)
	<-done
	return reply, err
}

// keypointEvaluation is the JSON shape both keypoint evaluators must return.
type keypointEvaluation struct {
	MatchedKeypoints []string `json:"matched_keypoints"`
}

// evaluateKeypoints runs the keypoint evaluator for one namespace against the
// given message and annotates it with the newly matched ids. An unset prompt or
// empty keypoint list disables the step; failures are logged and skipped.
func (r *Runner) evaluateKeypoints(ctx context.Context, llm LLM, session *Session, message *models.Message, namespace string) {
	var (
		template  string
		keypoints []string
		msgVar    string
	)
	switch namespace {
	case PlayerNamespace:
		template = session.PromptSet.PlayerKeypointPrompt
		keypoints = session.Simulation.PlayerKeypoints
		msgVar = "PLAYER_MESSAGE"
	case CharacterNamespace:
		template = session.PromptSet.CharacterKeypointPrompt
		keypoints = session.Simulation.CharacterKeypoints
		msgVar = "CHARACTER_RESPONSE"
	}
	if template == "" || len(keypoints) == 0 {
		return
	}

	system := prompt.Render(template, map[string]string{
		"CHARACTER": characterDescription(session.Character),
		"KEYPOINTS": prompt.EnumerateKeypoints(namespace, keypoints),
		msgVar:      message.Content,
	})
	raw, err := llm.Complete(ctx, system, message.Content, true)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "keypoint evaluation failed",
			slog.String("chat_id", session.Chat.ID), slog.String("namespace", namespace),
			errors.SlogError(err))
		return
	}
	message.Evaluation = raw

	var evaluation keypointEvaluation
	if err = llmjson.Unmarshal(raw, &evaluation); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "keypoint evaluation unparseable",
			slog.String("chat_id", session.Chat.ID), slog.String("namespace", namespace),
			errors.SlogError(err))
		return
	}
	message.MatchedKeypoints = session.Tracker.Mark(evaluation.MatchedKeypoints)
}

// moodEvaluation is the JSON shape the mood evaluator must return.
type moodEvaluation struct {
	Analysis     string `json:"analysis"`
	MoodChange   int    `json:"mood_change"`
	NewMoodLevel int    `json:"new_mood_level"`
}

// evaluateMood streams the mood evaluator, emitting the partial analysis text
// for live display, and annotates the assistant message with the final mood
// level and analysis. Failures are logged and the annotation skipped.
func (r *Runner) evaluateMood(ctx context.Context, llm LLM, session *Session, playerContent string, assistantMessage *models.Message, events chan<- Event) {
	if session.PromptSet.MoodPrompt == "" || session.Mood == nil {
		return
	}

	system := prompt.Render(session.PromptSet.MoodPrompt, map[string]string{
		"CHARACTER":          characterDescription(session.Character),
		"MOOD":               session.Mood.Name,
		"CURRENT_MOOD_LEVEL": strconv.Itoa(session.MoodIntensity),
		"PLAYER_MESSAGE":     playerContent,
		"CHARACTER_RESPONSE": assistantMessage.Content,
	})

	chunks := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var b strings.Builder
		forwarding := true
		for delta := range chunks {
			b.WriteString(delta)
			if !forwarding {
				continue
			}
			if partial, ok := llmjson.PartialStringField(b.String(), "analysis"); ok {
				forwarding = r.emit(ctx, events, Event{Type: EventMood, Content: partial})
			}
		}
	}()
	raw, err := llm.StreamJSON(ctx, system, assistantMessage.Content, chunks)
	close(chunks)
	<-done
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "mood evaluation failed",
			slog.String("chat_id", session.Chat.ID), errors.SlogError(err))
		return
	}

	var evaluation moodEvaluation
	if err = llmjson.Unmarshal(raw, &evaluation); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "mood evaluation unparseable",
			slog.String("chat_id", session.Chat.ID), errors.SlogError(err))
		return
	}
	level := clamp(evaluation.NewMoodLevel, 0, 100)
	assistantMessage.MoodLevel = &level
	assistantMessage.MoodAnalysis = evaluation.Analysis
	session.MoodIntensity = level
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
