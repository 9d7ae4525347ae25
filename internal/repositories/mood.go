package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/sqlite"
)

type MoodRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewMoodRepository(dbs *sqlite.Database, logger *slog.Logger) *MoodRepository {
	return &MoodRepository{
		dbs:    dbs,
		logger: logger.With("source", "MoodRepository"),
	}
}

func (r *MoodRepository) List(ctx context.Context) ([]models.Mood, error) {
	stmt := `SELECT id, name FROM moods ORDER BY name`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "query moods")
	}
	defer closeRows(rows, r.logger)

	var moods []models.Mood
	for rows.Next() {
		var mood models.Mood
		if err = rows.Scan(&mood.ID, &mood.Name); err != nil {
			return nil, errors.Wrap(err, "scan mood")
		}
		moods = append(moods, mood)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	for i := range moods {
		if moods[i].Behaviors, err = r.behaviors(ctx, moods[i].ID); err != nil {
			return nil, err
		}
	}
	return moods, nil
}

func (r *MoodRepository) Get(ctx context.Context, id int64) (*models.Mood, error) {
	stmt := `SELECT id, name FROM moods WHERE id = ?`
	var mood models.Mood
	if err := r.dbs.ReadOnly.QueryRowContext(ctx, stmt, id).Scan(&mood.ID, &mood.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read mood", slog.Int64("mood_id", id))
	}
	var err error
	if mood.Behaviors, err = r.behaviors(ctx, id); err != nil {
		return nil, err
	}
	return &mood, nil
}

func (r *MoodRepository) behaviors(ctx context.Context, moodID int64) ([]models.MoodBehavior, error) {
	stmt := `SELECT id, threshold_percentage, behavior_text
FROM mood_behaviors
WHERE mood_id = ?
ORDER BY threshold_percentage`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt, moodID)
	if err != nil {
		return nil, errors.Wrap(err, "query mood behaviors")
	}
	defer closeRows(rows, r.logger)

	var behaviors []models.MoodBehavior
	for rows.Next() {
		var behavior models.MoodBehavior
		if err = rows.Scan(&behavior.ID, &behavior.ThresholdPercentage, &behavior.BehaviorText); err != nil {
			return nil, errors.Wrap(err, "scan mood behavior")
		}
		behaviors = append(behaviors, behavior)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return behaviors, nil
}

// Create inserts the mood and its behaviors in one transaction.
func (r *MoodRepository) Create(ctx context.Context, mood *models.Mood) error {
	tx, err := r.dbs.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer rollback(tx, r.logger)

	if err = tx.QueryRowContext(ctx,
		`INSERT INTO moods (name) VALUES (?) RETURNING id`, mood.Name).Scan(&mood.ID); err != nil {
		return errors.Wrap(err, "insert mood")
	}
	if err = insertBehaviors(ctx, tx, mood.ID, mood.Behaviors); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Update replaces the mood's name and behavior bands.
func (r *MoodRepository) Update(ctx context.Context, mood models.Mood) error {
	tx, err := r.dbs.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer rollback(tx, r.logger)

	result, err := tx.ExecContext(ctx, `UPDATE moods SET name = ? WHERE id = ?`, mood.Name, mood.ID)
	if err != nil {
		return errors.Wrap(err, "update mood")
	}
	if err = requireRowAffected(result); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM mood_behaviors WHERE mood_id = ?`, mood.ID); err != nil {
		return errors.Wrap(err, "delete mood behaviors")
	}
	if err = insertBehaviors(ctx, tx, mood.ID, mood.Behaviors); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

func (r *MoodRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM moods WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete mood", slog.Int64("mood_id", id))
	}
	return nil
}

func insertBehaviors(ctx context.Context, tx *sql.Tx, moodID int64, behaviors []models.MoodBehavior) error {
	stmt := `INSERT INTO mood_behaviors (mood_id, threshold_percentage, behavior_text)
VALUES (@mood_id, @threshold_percentage, @behavior_text)`
	for _, behavior := range behaviors {
		if _, err := tx.ExecContext(ctx, stmt,
			sql.Named("mood_id", moodID),
			sql.Named("threshold_percentage", behavior.ThresholdPercentage),
			sql.Named("behavior_text", behavior.BehaviorText),
		); err != nil {
			return errors.Wrap(err, "insert mood behavior")
		}
	}
	return nil
}

func rollback(tx *sql.Tx, logger *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("could not rollback transaction", errors.SlogError(errors.Wrap(err, "rollback")))
	}
}
