package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/simcoach/simcoach/internal/ai"
	"github.com/simcoach/simcoach/internal/contexthelpers"
	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/repositories"
	"github.com/simcoach/simcoach/internal/simulation"
)

type startChatRequest struct {
	SimulationID int64  `json:"simulation_id"`
	PathID       *int64 `json:"path_id"`
}

func (app *application) startChat(w http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	app.createChat(w, r, req)
}

// startPublicChat is the guest entry point. Guests can only play simulations
// that are reachable through a public path.
func (app *application) startPublicChat(w http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.PathID == nil {
		app.clientError(w, r, http.StatusBadRequest, "path_id is required")
		return
	}
	path, err := app.paths.Get(r.Context(), *req.PathID)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	if !path.Public {
		app.notFound(w, r)
		return
	}
	app.createChat(w, r, req)
}

func (app *application) createChat(w http.ResponseWriter, r *http.Request, req startChatRequest) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	chat, err := app.runner.StartChat(r.Context(), userID, req.SimulationID, req.PathID)
	switch {
	case err == nil:
		app.writeJSON(w, r, http.StatusCreated, chat)
	case errors.Is(err, repositories.ErrNoAttemptsLeft):
		app.clientError(w, r, http.StatusConflict, "no attempts left for this step")
	case errors.Is(err, simulation.ErrStepNotFound), errors.Is(err, repositories.ErrNotFound):
		app.notFound(w, r)
	default:
		app.serverError(w, r, err)
	}
}

func (app *application) listChats(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	chats, err := app.chats.ListByUser(r.Context(), userID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	app.writeJSON(w, r, http.StatusOK, chats)
}

func (app *application) getChat(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	chat, err := app.chats.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, chat)
}

func (app *application) deleteChat(w http.ResponseWriter, r *http.Request) {
	if err := app.chats.DeleteAny(r.Context(), r.PathValue("id")); err != nil {
		app.repositoryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// postMessage starts a turn. The response is 202: the turn runs in the
// background and its events are consumed from the stream endpoint.
func (app *application) postMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	err := app.runner.StartTurn(r.Context(), r.PathValue("id"), userID, req.Content)
	switch {
	case err == nil:
		app.writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
	case errors.Is(err, simulation.ErrEmptyMessage):
		app.clientError(w, r, http.StatusBadRequest, "message is empty")
	case errors.Is(err, simulation.ErrTurnInFlight):
		app.clientError(w, r, http.StatusConflict, "a turn is already running")
	case errors.Is(err, simulation.ErrChatConcluded):
		app.clientError(w, r, http.StatusConflict, "chat has concluded")
	case errors.Is(err, simulation.ErrMisconfigured):
		app.clientError(w, r, http.StatusConflict, "chat configuration incomplete")
	case errors.Is(err, repositories.ErrNotFound):
		app.notFound(w, r)
	default:
		app.serverError(w, r, err)
	}
}

// streamChat follows the running turn of a chat over server-sent events. When
// no turn is producing, it emits a single terminal event with the persisted
// transcript so reconnecting clients converge on the stored state.
func (app *application) streamChat(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	chatID := r.PathValue("id")
	if _, err := app.chats.Get(r.Context(), chatID, userID); err != nil {
		app.repositoryError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	controller := http.NewResponseController(w)
	// The stream lasts as long as the turn; the server write timeout is
	// disabled for this handler chain.
	if err := controller.SetWriteDeadline(time.Time{}); err != nil {
		app.logger.Debug("could not clear write deadline", errors.SlogError(err))
	}

	feed := app.runner.Subscribe(chatID)
	var events chan simulation.Event
	select {
	case events = <-feed:
	case <-r.Context().Done():
		return
	}
	if events == nil {
		// No producer: fall back to the persisted transcript.
		chat, err := app.chats.Get(r.Context(), chatID, userID)
		if err != nil {
			app.logger.Error("could not load chat for stream fallback", errors.SlogError(err))
			return
		}
		app.writeEvent(w, controller, simulation.Event{
			Type:     simulation.EventTurn,
			Status:   chat.Status,
			Messages: chat.Messages,
		})
		return
	}
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !app.writeEvent(w, controller, event) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (app *application) writeEvent(w http.ResponseWriter, controller *http.ResponseController, event simulation.Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		app.logger.Error("could not marshal event", errors.SlogError(err))
		return false
	}
	if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return false
	}
	if err = controller.Flush(); err != nil {
		return false
	}
	return true
}

func (app *application) analyzeChat(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	analysis, err := app.runner.Analyze(r.Context(), r.PathValue("id"), userID)
	switch {
	case err == nil:
		app.writeJSON(w, r, http.StatusOK, analysis)
	case errors.Is(err, simulation.ErrChatActive):
		app.clientError(w, r, http.StatusConflict, "chat is still active")
	case errors.Is(err, simulation.ErrAnalysisDisabled):
		app.clientError(w, r, http.StatusConflict, "analysis prompt not configured")
	case errors.Is(err, repositories.ErrNotFound):
		app.notFound(w, r)
	default:
		app.serverError(w, r, err)
	}
}

// chatSpeech synthesizes audio for one assistant message, addressed by its
// index in the transcript.
func (app *application) chatSpeech(w http.ResponseWriter, r *http.Request) {
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	chat, err := app.chats.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("message"))
	if err != nil || index < 0 || index >= len(chat.Messages) {
		app.clientError(w, r, http.StatusBadRequest, "invalid message index")
		return
	}
	message := chat.Messages[index]
	if message.Role != models.RoleAssistant {
		app.clientError(w, r, http.StatusBadRequest, "only character messages have speech")
		return
	}
	sim, err := app.simulations.Get(r.Context(), chat.SimulationID)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	setting, err := app.aiSettings.Get(r.Context(), sim.AISettingID)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	audio, err := app.newAIClient(*setting).Speech(r.Context(), ai.SpeechRequest{Input: message.Content})
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	defer func() {
		if err := audio.Close(); err != nil {
			app.logger.Debug("could not close speech stream", errors.SlogError(err))
		}
	}()
	w.Header().Set("Content-Type", "audio/mpeg")
	if _, err = io.Copy(w, audio); err != nil {
		app.logger.Debug("speech stream interrupted", errors.SlogError(err))
	}
}
