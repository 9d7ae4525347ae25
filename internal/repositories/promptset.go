package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/sqlite"
)

// PromptSetRepository manages the singleton prompt template record.
type PromptSetRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewPromptSetRepository(dbs *sqlite.Database, logger *slog.Logger) *PromptSetRepository {
	return &PromptSetRepository{
		dbs:    dbs,
		logger: logger.With("source", "PromptSetRepository"),
	}
}

func (r *PromptSetRepository) Get(ctx context.Context) (*models.PromptSet, error) {
	stmt := `SELECT system_prompt, character_keypoint_prompt, player_keypoint_prompt, mood_prompt, analysis_prompt
FROM prompt_sets
WHERE id = 1`
	var promptSet models.PromptSet
	if err := r.dbs.ReadOnly.QueryRowContext(ctx, stmt).Scan(&promptSet.SystemPrompt,
		&promptSet.CharacterKeypointPrompt, &promptSet.PlayerKeypointPrompt,
		&promptSet.MoodPrompt, &promptSet.AnalysisPrompt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read prompt set")
	}
	return &promptSet, nil
}

func (r *PromptSetRepository) Put(ctx context.Context, promptSet models.PromptSet) error {
	stmt := `INSERT INTO prompt_sets (id, system_prompt, character_keypoint_prompt, player_keypoint_prompt,
mood_prompt, analysis_prompt)
VALUES (1, @system_prompt, @character_keypoint_prompt, @player_keypoint_prompt, @mood_prompt, @analysis_prompt)
ON CONFLICT (id) DO UPDATE SET system_prompt             = excluded.system_prompt,
                               character_keypoint_prompt = excluded.character_keypoint_prompt,
                               player_keypoint_prompt    = excluded.player_keypoint_prompt,
                               mood_prompt               = excluded.mood_prompt,
                               analysis_prompt           = excluded.analysis_prompt`
	params := []any{
		sql.Named("system_prompt", promptSet.SystemPrompt),
		sql.Named("character_keypoint_prompt", promptSet.CharacterKeypointPrompt),
		sql.Named("player_keypoint_prompt", promptSet.PlayerKeypointPrompt),
		sql.Named("mood_prompt", promptSet.MoodPrompt),
		sql.Named("analysis_prompt", promptSet.AnalysisPrompt),
	}
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, params...); err != nil {
		return errors.Wrap(err, "upsert prompt set")
	}
	return nil
}
