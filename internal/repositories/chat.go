package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/sqlite"
)

type ChatRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewChatRepository(dbs *sqlite.Database, logger *slog.Logger) *ChatRepository {
	return &ChatRepository{
		dbs:    dbs,
		logger: logger.With("source", "ChatRepository"),
	}
}

const chatColumns = `id, simulation_id, user_id, status, messages, analysis, analyzed_at,
path_id, path_simulation_id, created_at`

func scanChat(row interface{ Scan(...any) error }) (*models.Chat, error) {
	var (
		chat             models.Chat
		messages         string
		analysis         sql.NullString
		analyzedAt       sql.NullTime
		pathID           sql.NullInt64
		pathSimulationID sql.NullInt64
	)
	if err := row.Scan(&chat.ID, &chat.SimulationID, &chat.UserID, &chat.Status, &messages,
		&analysis, &analyzedAt, &pathID, &pathSimulationID, &chat.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &chat.Messages); err != nil {
		return nil, errors.Wrap(err, "unmarshal messages")
	}
	if analysis.Valid {
		chat.Analysis = &models.Analysis{}
		if err := json.Unmarshal([]byte(analysis.String), chat.Analysis); err != nil {
			return nil, errors.Wrap(err, "unmarshal analysis")
		}
	}
	if analyzedAt.Valid {
		chat.AnalyzedAt = &analyzedAt.Time
	}
	if pathID.Valid {
		chat.PathID = &pathID.Int64
	}
	if pathSimulationID.Valid {
		chat.PathSimulationID = &pathSimulationID.Int64
	}
	return &chat, nil
}

func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	messages, err := json.Marshal(chat.Messages)
	if err != nil {
		return errors.Wrap(err, "marshal messages")
	}
	stmt := `INSERT INTO chats (id, simulation_id, user_id, status, messages, path_id, path_simulation_id)
VALUES (@id, @simulation_id, @user_id, @status, @messages, @path_id, @path_simulation_id)
RETURNING created_at`
	params := []any{
		sql.Named("id", chat.ID),
		sql.Named("simulation_id", chat.SimulationID),
		sql.Named("user_id", chat.UserID),
		sql.Named("status", chat.Status),
		sql.Named("messages", string(messages)),
		sql.Named("path_id", chat.PathID),
		sql.Named("path_simulation_id", chat.PathSimulationID),
	}
	if err = r.dbs.ReadWrite.QueryRowContext(ctx, stmt, params...).Scan(&chat.CreatedAt); err != nil {
		return errors.Wrap(err, "insert chat")
	}
	return nil
}

// Get is scoped to the owning user so that chat ids are not guessable handles.
func (r *ChatRepository) Get(ctx context.Context, id string, userID []byte) (*models.Chat, error) {
	stmt := `SELECT ` + chatColumns + ` FROM chats WHERE id = @id AND user_id = @user_id`
	row := r.dbs.ReadOnly.QueryRowContext(ctx, stmt, sql.Named("id", id), sql.Named("user_id", userID))
	chat, err := scanChat(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read chat", slog.String("chat_id", id))
	}
	return chat, nil
}

func (r *ChatRepository) ListByUser(ctx context.Context, userID []byte) ([]models.Chat, error) {
	stmt := `SELECT ` + chatColumns + ` FROM chats WHERE user_id = ? ORDER BY created_at DESC, id`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query chats")
	}
	defer closeRows(rows, r.logger)

	var chats []models.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan chat")
		}
		chats = append(chats, *chat)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return chats, nil
}

// List returns every chat regardless of owner. Administrative use only.
func (r *ChatRepository) List(ctx context.Context) ([]models.Chat, error) {
	stmt := `SELECT ` + chatColumns + ` FROM chats ORDER BY created_at DESC, id`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "query chats")
	}
	defer closeRows(rows, r.logger)

	var chats []models.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan chat")
		}
		chats = append(chats, *chat)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return chats, nil
}

func (r *ChatRepository) UpdateMessages(ctx context.Context, id string, messages []models.Message) error {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return errors.Wrap(err, "marshal messages")
	}
	result, err := r.dbs.ReadWrite.ExecContext(ctx,
		`UPDATE chats SET messages = ? WHERE id = ?`, string(encoded), id)
	if err != nil {
		return errors.Wrap(err, "update chat messages", slog.String("chat_id", id))
	}
	return requireRowAffected(result)
}

// SetStatus transitions an active chat to completed or failed. The guard makes
// the transition monotonic; a chat that already concluded is left untouched.
func (r *ChatRepository) SetStatus(ctx context.Context, id string, status models.ChatStatus) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx,
		`UPDATE chats SET status = ? WHERE id = ? AND status = 'active'`, status, id)
	if err != nil {
		return errors.Wrap(err, "update chat status", slog.String("chat_id", id))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		r.logger.LogAttrs(ctx, slog.LevelInfo, "chat already concluded, status unchanged",
			slog.String("chat_id", id), slog.String("status", string(status)))
	}
	return nil
}

func (r *ChatRepository) SetAnalysis(ctx context.Context, id string, analysis models.Analysis) error {
	encoded, err := json.Marshal(analysis)
	if err != nil {
		return errors.Wrap(err, "marshal analysis")
	}
	result, err := r.dbs.ReadWrite.ExecContext(ctx,
		`UPDATE chats SET analysis = @analysis, analyzed_at = @analyzed_at WHERE id = @id`,
		sql.Named("analysis", string(encoded)),
		sql.Named("analyzed_at", time.Now().UTC()),
		sql.Named("id", id))
	if err != nil {
		return errors.Wrap(err, "update chat analysis", slog.String("chat_id", id))
	}
	return requireRowAffected(result)
}

func (r *ChatRepository) Delete(ctx context.Context, id string, userID []byte) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx,
		`DELETE FROM chats WHERE id = @id AND user_id = @user_id`,
		sql.Named("id", id), sql.Named("user_id", userID))
	if err != nil {
		return errors.Wrap(err, "delete chat", slog.String("chat_id", id))
	}
	return requireRowAffected(result)
}

// DeleteAny removes a chat regardless of owner. Administrative use only.
func (r *ChatRepository) DeleteAny(ctx context.Context, id string) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx,
		`DELETE FROM chats WHERE id = @id`, sql.Named("id", id))
	if err != nil {
		return errors.Wrap(err, "delete chat", slog.String("chat_id", id))
	}
	return requireRowAffected(result)
}
