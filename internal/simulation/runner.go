package simulation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/simcoach/simcoach/internal/broker"
	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/repositories"
	"github.com/simcoach/simcoach/internal/sqlite"
)

var (
	ErrTurnInFlight  = errors.NewSentinel("a turn is already running for this chat")
	ErrChatConcluded = errors.NewSentinel("chat has concluded")
	ErrEmptyMessage  = errors.NewSentinel("message is empty")
)

// turnTimeout bounds one full turn including all evaluator calls.
const turnTimeout = 5 * time.Minute

// failureMessage is the synthesized character line when the interaction budget
// runs out. No model call is made for it.
const failureMessage = "I don't think we're getting anywhere. Let's leave it here."

// Runner orchestrates chat turns: it evaluates the player message, streams the
// character reply, evaluates it, updates the mood, and persists the transcript.
// Turns run in producer goroutines; consumers follow along over the broker.
type Runner struct {
	logger      *slog.Logger
	broker      *broker.ChannelBroker[string, Event]
	newLLM      LLMFactory
	chats       *repositories.ChatRepository
	simulations *repositories.SimulationRepository
	characters  *repositories.CharacterRepository
	moods       *repositories.MoodRepository
	aiSettings  *repositories.AISettingRepository
	promptSets  *repositories.PromptSetRepository
	paths       *repositories.PathRepository
	timeout     time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewRunner wires a Runner against the database. Call Close to stop the broker.
func NewRunner(dbs *sqlite.Database, logger *slog.Logger, newLLM LLMFactory) *Runner {
	eventBroker := broker.NewChannelBroker[string, Event]()
	go eventBroker.Start()
	return &Runner{
		logger:      logger.With("source", "Runner"),
		broker:      eventBroker,
		newLLM:      newLLM,
		chats:       repositories.NewChatRepository(dbs, logger),
		simulations: repositories.NewSimulationRepository(dbs, logger),
		characters:  repositories.NewCharacterRepository(dbs, logger),
		moods:       repositories.NewMoodRepository(dbs, logger),
		aiSettings:  repositories.NewAISettingRepository(dbs, logger),
		promptSets:  repositories.NewPromptSetRepository(dbs, logger),
		paths:       repositories.NewPathRepository(dbs, logger),
		timeout:     turnTimeout,
	}
}

// Close stops the event broker.
func (r *Runner) Close() {
	r.broker.Stop()
}

// Subscribe returns the event feed of the chat's running turn, following the
// broker contract: a closed channel means no turn is producing right now.
func (r *Runner) Subscribe(chatID string) chan chan Event {
	return r.broker.Subscribe(chatID)
}

func (r *Runner) acquireTurn(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight == nil {
		r.inFlight = map[string]struct{}{}
	}
	if _, running := r.inFlight[chatID]; running {
		return false
	}
	r.inFlight[chatID] = struct{}{}
	return true
}

func (r *Runner) releaseTurn(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, chatID)
}

// StartTurn validates the player message and starts the turn in a producer
// goroutine. The caller subscribes to the event feed for the outcome.
func (r *Runner) StartTurn(ctx context.Context, chatID string, userID []byte, content string) error {
	if content == "" {
		return ErrEmptyMessage
	}
	session, err := r.LoadSession(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if session.Chat.Status != models.ChatStatusActive {
		return ErrChatConcluded
	}
	if !r.acquireTurn(chatID) {
		return ErrTurnInFlight
	}

	events := make(chan Event)
	r.broker.Publish(chatID, events)
	go func() {
		defer r.releaseTurn(chatID)
		// The turn outlives the HTTP request that started it.
		turnCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.runTurn(turnCtx, session, content, events)
		close(events)
		r.broker.Unpublish(chatID)
	}()
	return nil
}

// runTurn drives one turn through its state sequence. Evaluator failures are
// logged and the sub-step skipped; only a failing assistant stream aborts the
// turn.
func (r *Runner) runTurn(ctx context.Context, session *Session, content string, events chan<- Event) {
	llm := r.newLLM(*session.AISetting)
	chat := session.Chat

	chat.Messages = append(chat.Messages, models.Message{
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	playerMessage := &chat.Messages[len(chat.Messages)-1]
	r.persistMessages(ctx, chat)

	r.evaluateKeypoints(ctx, llm, session, playerMessage, PlayerNamespace)
	if session.Tracker.AllMatched() {
		r.concludeTurn(ctx, session, models.ChatStatusCompleted, events)
		return
	}

	// Interaction budget check before spending a model call.
	if chat.AssistantCount() >= session.Simulation.MaxInteractions {
		chat.Messages = append(chat.Messages, models.Message{
			Role:      models.RoleAssistant,
			Content:   failureMessage,
			Timestamp: time.Now().UTC(),
		})
		r.concludeTurn(ctx, session, models.ChatStatusFailed, events)
		return
	}

	reply, err := r.streamAssistant(ctx, llm, session, content, events)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "assistant stream failed",
			slog.String("chat_id", chat.ID), errors.SlogError(err))
		chat.Messages = append(chat.Messages, models.Message{
			Role:      models.RoleAssistant,
			Content:   "The character could not respond. Please try again.",
			Timestamp: time.Now().UTC(),
		})
		r.persistMessages(ctx, chat)
		r.emit(ctx, events, Event{Type: EventError, Content: "assistant response failed"})
		return
	}
	chat.Messages = append(chat.Messages, models.Message{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})
	assistantMessage := &chat.Messages[len(chat.Messages)-1]
	r.persistMessages(ctx, chat)

	r.evaluateKeypoints(ctx, llm, session, assistantMessage, CharacterNamespace)
	if session.Tracker.AllMatched() {
		r.concludeTurn(ctx, session, models.ChatStatusCompleted, events)
		return
	}

	r.evaluateMood(ctx, llm, session, playerMessage.Content, assistantMessage, events)

	r.persistMessages(ctx, chat)
	r.emit(ctx, events, Event{Type: EventTurn, Status: chat.Status, Messages: chat.Messages})
}

// emit forwards an event to the feed. Consumers can go away mid-turn, so the
// send is bounded by the turn deadline; a false return means nobody is
// listening anymore. State must be persisted before emitting, never after.
func (r *Runner) emit(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		r.logger.LogAttrs(ctx, slog.LevelWarn, "event dropped, consumer gone",
			slog.String("event_type", string(event.Type)))
		return false
	}
}

// concludeTurn persists the transcript, transitions the chat status, updates
// path progress, and emits the terminal event. The writes survive the turn
// deadline for the same reason persistMessages does.
func (r *Runner) concludeTurn(ctx context.Context, session *Session, status models.ChatStatus, events chan<- Event) {
	chat := session.Chat
	chat.Status = status
	r.persistMessages(ctx, chat)
	writeCtx := context.WithoutCancel(ctx)
	if err := r.chats.SetStatus(writeCtx, chat.ID, status); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "could not update chat status",
			slog.String("chat_id", chat.ID), errors.SlogError(err))
	}
	if chat.PathID != nil && chat.PathSimulationID != nil {
		completed := status == models.ChatStatusCompleted
		if err := r.paths.FinishAttempt(writeCtx, *chat.PathID, *chat.PathSimulationID, chat.UserID, completed); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "could not update path progress",
				slog.String("chat_id", chat.ID), errors.SlogError(err))
		}
	}
	r.emit(ctx, events, Event{Type: EventTurn, Status: chat.Status, Messages: chat.Messages})
}

// persistMessages writes the transcript back after every append or annotation.
// The write survives the turn deadline so an aborted turn never loses messages.
func (r *Runner) persistMessages(ctx context.Context, chat *models.Chat) {
	if err := r.chats.UpdateMessages(context.WithoutCancel(ctx), chat.ID, chat.Messages); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "could not persist messages",
			slog.String("chat_id", chat.ID), errors.SlogError(err))
	}
}
