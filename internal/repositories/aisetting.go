package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/sqlite"
)

type AISettingRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewAISettingRepository(dbs *sqlite.Database, logger *slog.Logger) *AISettingRepository {
	return &AISettingRepository{
		dbs:    dbs,
		logger: logger.With("source", "AISettingRepository"),
	}
}

func (r *AISettingRepository) List(ctx context.Context) ([]models.AISetting, error) {
	stmt := `SELECT id, name, api_key, model FROM ai_settings ORDER BY name`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "query ai settings")
	}
	defer closeRows(rows, r.logger)

	var settings []models.AISetting
	for rows.Next() {
		var setting models.AISetting
		if err = rows.Scan(&setting.ID, &setting.Name, &setting.APIKey, &setting.Model); err != nil {
			return nil, errors.Wrap(err, "scan ai setting")
		}
		settings = append(settings, setting)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return settings, nil
}

func (r *AISettingRepository) Get(ctx context.Context, id int64) (*models.AISetting, error) {
	stmt := `SELECT id, name, api_key, model FROM ai_settings WHERE id = ?`
	var setting models.AISetting
	if err := r.dbs.ReadOnly.QueryRowContext(ctx, stmt, id).Scan(&setting.ID, &setting.Name,
		&setting.APIKey, &setting.Model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read ai setting", slog.Int64("ai_setting_id", id))
	}
	return &setting, nil
}

func (r *AISettingRepository) Create(ctx context.Context, setting *models.AISetting) error {
	stmt := `INSERT INTO ai_settings (name, api_key, model) VALUES (@name, @api_key, @model) RETURNING id`
	params := []any{
		sql.Named("name", setting.Name),
		sql.Named("api_key", setting.APIKey),
		sql.Named("model", setting.Model),
	}
	if err := r.dbs.ReadWrite.QueryRowContext(ctx, stmt, params...).Scan(&setting.ID); err != nil {
		return errors.Wrap(err, "insert ai setting")
	}
	return nil
}

// Update keeps the stored API key when the new value is empty so that admins
// can edit the name or model without re-entering the key.
func (r *AISettingRepository) Update(ctx context.Context, setting models.AISetting) error {
	stmt := `UPDATE ai_settings
SET name    = @name,
    api_key = CASE WHEN @api_key = '' THEN api_key ELSE @api_key END,
    model   = @model
WHERE id = @id`
	params := []any{
		sql.Named("id", setting.ID),
		sql.Named("name", setting.Name),
		sql.Named("api_key", setting.APIKey),
		sql.Named("model", setting.Model),
	}
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, params...)
	if err != nil {
		return errors.Wrap(err, "update ai setting")
	}
	return requireRowAffected(result)
}

func (r *AISettingRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM ai_settings WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete ai setting", slog.Int64("ai_setting_id", id))
	}
	return nil
}
