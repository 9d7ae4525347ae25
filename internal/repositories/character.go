package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/sqlite"
)

var ErrNotFound = errors.NewSentinel("not found")

type CharacterRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewCharacterRepository(dbs *sqlite.Database, logger *slog.Logger) *CharacterRepository {
	return &CharacterRepository{
		dbs:    dbs,
		logger: logger.With("source", "CharacterRepository"),
	}
}

func (r *CharacterRepository) List(ctx context.Context) ([]models.Character, error) {
	stmt := `SELECT id, name, description, mood_id, intensity FROM characters ORDER BY name`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "query characters")
	}
	defer closeRows(rows, r.logger)

	var characters []models.Character
	for rows.Next() {
		var character models.Character
		if err = rows.Scan(&character.ID, &character.Name, &character.Description,
			&character.MoodID, &character.Intensity); err != nil {
			return nil, errors.Wrap(err, "scan character")
		}
		characters = append(characters, character)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return characters, nil
}

func (r *CharacterRepository) Get(ctx context.Context, id int64) (*models.Character, error) {
	stmt := `SELECT id, name, description, mood_id, intensity FROM characters WHERE id = ?`
	var character models.Character
	if err := r.dbs.ReadOnly.QueryRowContext(ctx, stmt, id).Scan(&character.ID, &character.Name,
		&character.Description, &character.MoodID, &character.Intensity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read character", slog.Int64("character_id", id))
	}
	return &character, nil
}

func (r *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	stmt := `INSERT INTO characters (name, description, mood_id, intensity)
VALUES (@name, @description, @mood_id, @intensity)
RETURNING id`
	params := []any{
		sql.Named("name", character.Name),
		sql.Named("description", character.Description),
		sql.Named("mood_id", character.MoodID),
		sql.Named("intensity", character.Intensity),
	}
	if err := r.dbs.ReadWrite.QueryRowContext(ctx, stmt, params...).Scan(&character.ID); err != nil {
		return errors.Wrap(err, "insert character")
	}
	return nil
}

func (r *CharacterRepository) Update(ctx context.Context, character models.Character) error {
	stmt := `UPDATE characters
SET name = @name, description = @description, mood_id = @mood_id, intensity = @intensity
WHERE id = @id`
	params := []any{
		sql.Named("id", character.ID),
		sql.Named("name", character.Name),
		sql.Named("description", character.Description),
		sql.Named("mood_id", character.MoodID),
		sql.Named("intensity", character.Intensity),
	}
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, params...)
	if err != nil {
		return errors.Wrap(err, "update character")
	}
	return requireRowAffected(result)
}

func (r *CharacterRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete character", slog.Int64("character_id", id))
	}
	return nil
}

// closeRows logs instead of returning because it runs in defers.
func closeRows(rows *sql.Rows, logger *slog.Logger) {
	if err := rows.Close(); err != nil {
		err = errors.Wrap(err, "close rows")
		logger.Error("could not close rows", errors.SlogError(err))
	}
}

// requireRowAffected converts a zero-row update into ErrNotFound.
func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
