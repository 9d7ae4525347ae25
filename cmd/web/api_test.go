package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/simulation"
	"github.com/stretchr/testify/require"
)

// Test_application_api drives the API end to end: the first registered user
// becomes administrator, configures the content, and plays a chat against the
// stubbed model upstream.
func Test_application_api(t *testing.T) {
	stub := newOpenAIStub()
	srv := startTestServer(t, os.Stderr, newTestLookupEnv(stub.start(t)))
	srv.Register(t)

	t.Run("character CRUD", func(t *testing.T) {
		var character models.Character
		status := srv.DoJSON(t, http.MethodPost, "/api/characters",
			map[string]any{"name": "Eero Laine", "description": "A hesitant first-time customer.", "intensity": 20},
			&character)
		require.Equal(t, http.StatusCreated, status)
		require.NotZero(t, character.ID)

		var characters []models.Character
		status = srv.DoJSON(t, http.MethodGet, "/api/characters", nil, &characters)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, characters, 2) // the seeded character plus ours

		character.Description = "A hesitant first-time customer, easily reassured."
		status = srv.DoJSON(t, http.MethodPut, fmt.Sprintf("/api/characters/%d", character.ID), character, nil)
		require.Equal(t, http.StatusOK, status)

		status = srv.DoJSON(t, http.MethodGet, "/api/characters/99999", nil, nil)
		require.Equal(t, http.StatusNotFound, status)

		status = srv.DoJSON(t, http.MethodPost, "/api/characters", map[string]any{"name": ""}, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("mood validation", func(t *testing.T) {
		status := srv.DoJSON(t, http.MethodPost, "/api/moods", map[string]any{
			"name": "Nervous",
			"behaviors": []map[string]any{
				{"threshold_percentage": 0, "behavior_text": "Hesitates and asks for reassurance."},
				{"threshold_percentage": 150, "behavior_text": "Out of range."},
			},
		}, nil)
		require.Equal(t, http.StatusBadRequest, status)

		var mood models.Mood
		status = srv.DoJSON(t, http.MethodPost, "/api/moods", map[string]any{
			"name": "Nervous",
			"behaviors": []map[string]any{
				{"threshold_percentage": 0, "behavior_text": "Hesitates and asks for reassurance."},
				{"threshold_percentage": 60, "behavior_text": "Talks about cancelling the order."},
			},
		}, &mood)
		require.Equal(t, http.StatusCreated, status)
		require.Len(t, mood.Behaviors, 2)
	})

	t.Run("ai settings hide the key", func(t *testing.T) {
		var created map[string]any
		status := srv.DoJSON(t, http.MethodPost, "/api/ai-settings",
			map[string]any{"name": "Stubbed", "api_key": "sk-test", "model": "gpt-4o-mini"}, &created)
		require.Equal(t, http.StatusCreated, status)
		_, leaked := created["api_key"]
		require.False(t, leaked)

		var settings []map[string]any
		status = srv.DoJSON(t, http.MethodGet, "/api/ai-settings", nil, &settings)
		require.Equal(t, http.StatusOK, status)
		for _, setting := range settings {
			_, leaked = setting["api_key"]
			require.False(t, leaked)
		}
	})

	t.Run("simulation validation", func(t *testing.T) {
		status := srv.DoJSON(t, http.MethodPost, "/api/simulations", map[string]any{
			"name": "Broken", "objective": "x", "context": "", "character_id": 1, "ai_setting_id": 1,
			"character_keypoints": []string{}, "player_keypoints": []string{}, "max_interactions": 0,
		}, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("prompt set", func(t *testing.T) {
		var promptSet models.PromptSet
		status := srv.DoJSON(t, http.MethodGet, "/api/prompt-set", nil, &promptSet)
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, promptSet.SystemPrompt, "{{CHARACTER}}")

		status = srv.DoJSON(t, http.MethodPut, "/api/prompt-set", promptSet, nil)
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("chat turn streams and annotates", func(t *testing.T) {
		var chat models.Chat
		status := srv.DoJSON(t, http.MethodPost, "/api/chats", map[string]any{"simulation_id": 1}, &chat)
		require.Equal(t, http.StatusCreated, status)
		require.Equal(t, models.ChatStatusActive, chat.Status)

		status = srv.DoJSON(t, http.MethodPost, "/api/chats/"+chat.ID+"/messages", map[string]any{"content": ""}, nil)
		require.Equal(t, http.StatusBadRequest, status)

		status = srv.DoJSON(t, http.MethodPost, "/api/chats/"+chat.ID+"/messages",
			map[string]any{"content": "I understand this has been frustrating."}, nil)
		require.Equal(t, http.StatusAccepted, status)

		events := srv.StreamEvents(t, "/api/chats/"+chat.ID+"/stream")
		var chunks []string
		var moods []string
		for _, event := range events {
			switch event.Type {
			case simulation.EventChunk:
				chunks = append(chunks, event.Content)
			case simulation.EventMood:
				moods = append(moods, event.Content)
			}
		}
		requireStubReply(t, stub.reply, chunks)
		require.NotEmpty(t, moods)
		require.Equal(t, "Softening slightly.", moods[len(moods)-1])

		last := events[len(events)-1]
		require.Equal(t, simulation.EventTurn, last.Type)
		require.Equal(t, models.ChatStatusActive, last.Status)
		require.Len(t, last.Messages, 2)
		require.Equal(t, models.RoleAssistant, last.Messages[1].Role)
		require.NotNil(t, last.Messages[1].MoodLevel)
		require.Equal(t, 40, *last.Messages[1].MoodLevel)
		require.Empty(t, last.Messages[0].MatchedKeypoints)

		// Analysis refuses while the chat is active.
		status = srv.DoJSON(t, http.MethodPost, "/api/chats/"+chat.ID+"/analysis", nil, nil)
		require.Equal(t, http.StatusConflict, status)

		// Second turn covers every keypoint and concludes the chat.
		stub.setMatches([]string{"player_1", "player_2"}, []string{"character_1", "character_2"})
		status = srv.DoJSON(t, http.MethodPost, "/api/chats/"+chat.ID+"/messages",
			map[string]any{"content": "I am sorry about the delays. A technician will come on Thursday at nine."}, nil)
		require.Equal(t, http.StatusAccepted, status)

		events = srv.StreamEvents(t, "/api/chats/"+chat.ID+"/stream")
		last = events[len(events)-1]
		require.Equal(t, simulation.EventTurn, last.Type)
		require.Equal(t, models.ChatStatusCompleted, last.Status)
		require.Len(t, last.Messages, 4)
		require.Equal(t, []string{"player_1", "player_2"}, last.Messages[2].MatchedKeypoints)
		require.Equal(t, []string{"character_1", "character_2"}, last.Messages[3].MatchedKeypoints)
		for _, event := range events {
			// A completing turn skips the mood evaluation.
			require.NotEqual(t, simulation.EventMood, event.Type)
		}

		status = srv.DoJSON(t, http.MethodPost, "/api/chats/"+chat.ID+"/messages",
			map[string]any{"content": "One more thing."}, nil)
		require.Equal(t, http.StatusConflict, status)

		var analysis models.Analysis
		status = srv.DoJSON(t, http.MethodPost, "/api/chats/"+chat.ID+"/analysis", nil, &analysis)
		require.Equal(t, http.StatusOK, status)
		require.InEpsilon(t, 4.0, analysis.OverallScore, 0.001)

		var stored models.Chat
		status = srv.DoJSON(t, http.MethodGet, "/api/chats/"+chat.ID, nil, &stored)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, stored.Analysis)
		require.NotNil(t, stored.AnalyzedAt)

		t.Run("speech", func(t *testing.T) {
			resp := srv.Get(t, "/api/chats/"+chat.ID+"/speech?message=1")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
			audio, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
			require.Equal(t, stub.audio, audio)

			// Player messages have no speech.
			status := srv.DoJSON(t, http.MethodGet, "/api/chats/"+chat.ID+"/speech?message=0", nil, nil)
			require.Equal(t, http.StatusBadRequest, status)
		})

		status = srv.DoJSON(t, http.MethodDelete, "/api/chats/"+chat.ID, nil, nil)
		require.Equal(t, http.StatusNoContent, status)
		status = srv.DoJSON(t, http.MethodGet, "/api/chats/"+chat.ID, nil, nil)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("path attempts", func(t *testing.T) {
		var chat models.Chat
		status := srv.DoJSON(t, http.MethodPost, "/api/chats", map[string]any{"simulation_id": 1, "path_id": 1}, &chat)
		require.Equal(t, http.StatusCreated, status)
		require.NotNil(t, chat.PathID)

		var progress struct {
			Steps []struct {
				State        models.StepState `json:"state"`
				AttemptsUsed int              `json:"attempts_used"`
				MaxAttempts  int              `json:"max_attempts"`
			} `json:"steps"`
		}
		status = srv.DoJSON(t, http.MethodGet, "/api/paths/1/progress", nil, &progress)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, progress.Steps, 1)
		require.Equal(t, 1, progress.Steps[0].AttemptsUsed)
		require.Equal(t, models.StepStateAvailable, progress.Steps[0].State)

		// A path chat for a simulation outside the path does not exist.
		status = srv.DoJSON(t, http.MethodPost, "/api/chats", map[string]any{"simulation_id": 99999, "path_id": 1}, nil)
		require.Equal(t, http.StatusNotFound, status)
	})
}

// Test_application_guestAccess checks the public surface: guests get a
// credential-less session and can only play through public paths.
func Test_application_guestAccess(t *testing.T) {
	stub := newOpenAIStub()
	srv := startTestServer(t, os.Stderr, newTestLookupEnv(stub.start(t)))

	// No session yet: the authenticated surface refuses.
	status := srv.DoJSON(t, http.MethodGet, "/api/chats", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	var paths []models.Path
	status = srv.DoJSON(t, http.MethodGet, "/api/public/paths", nil, &paths)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, paths, 1)
	require.True(t, paths[0].Public)

	// Guests must come in through a path.
	status = srv.DoJSON(t, http.MethodPost, "/api/public/chats", map[string]any{"simulation_id": 1}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	var chat models.Chat
	status = srv.DoJSON(t, http.MethodPost, "/api/public/chats", map[string]any{"simulation_id": 1, "path_id": 1}, &chat)
	require.Equal(t, http.StatusCreated, status)

	var progress struct {
		Steps []struct {
			State        models.StepState `json:"state"`
			AttemptsUsed int              `json:"attempts_used"`
		} `json:"steps"`
	}
	status = srv.DoJSON(t, http.MethodGet, "/api/public/paths/1/progress", nil, &progress)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, progress.Steps, 1)
	require.Equal(t, 1, progress.Steps[0].AttemptsUsed)
	require.Equal(t, models.StepStateAvailable, progress.Steps[0].State)

	status = srv.DoJSON(t, http.MethodPost, "/api/public/chats/"+chat.ID+"/messages",
		map[string]any{"content": "Hello, how can I help you today?"}, nil)
	require.Equal(t, http.StatusAccepted, status)
	events := srv.StreamEvents(t, "/api/public/chats/"+chat.ID+"/stream")
	last := events[len(events)-1]
	require.Equal(t, simulation.EventTurn, last.Type)
	require.Equal(t, models.ChatStatusActive, last.Status)
	require.Len(t, last.Messages, 2)

	// Burn through the remaining attempts.
	for i := 0; i < 2; i++ {
		status = srv.DoJSON(t, http.MethodPost, "/api/public/chats", map[string]any{"simulation_id": 1, "path_id": 1}, nil)
		require.Equal(t, http.StatusCreated, status)
	}
	status = srv.DoJSON(t, http.MethodPost, "/api/public/chats", map[string]any{"simulation_id": 1, "path_id": 1}, nil)
	require.Equal(t, http.StatusConflict, status)
	status = srv.DoJSON(t, http.MethodGet, "/api/public/paths/1/progress", nil, &progress)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, models.StepStateFailed, progress.Steps[0].State)

	// The guest session is a real user but never an administrator.
	status = srv.DoJSON(t, http.MethodPost, "/api/characters", map[string]any{"name": "Nope"}, nil)
	require.Equal(t, http.StatusForbidden, status)
}
