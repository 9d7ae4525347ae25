package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/sqlite"
)

// ErrNoAttemptsLeft is returned by StartAttempt when the step's attempt budget
// is exhausted and the step was not completed before.
var ErrNoAttemptsLeft = errors.NewSentinel("no attempts left")

type PathRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewPathRepository(dbs *sqlite.Database, logger *slog.Logger) *PathRepository {
	return &PathRepository{
		dbs:    dbs,
		logger: logger.With("source", "PathRepository"),
	}
}

func (r *PathRepository) List(ctx context.Context) ([]models.Path, error) {
	return r.list(ctx, `SELECT id, name, description, public FROM paths ORDER BY name`)
}

// ListPublic returns the paths visible without signing in.
func (r *PathRepository) ListPublic(ctx context.Context) ([]models.Path, error) {
	return r.list(ctx, `SELECT id, name, description, public FROM paths WHERE public ORDER BY name`)
}

func (r *PathRepository) list(ctx context.Context, stmt string) ([]models.Path, error) {
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "query paths")
	}
	defer closeRows(rows, r.logger)

	var paths []models.Path
	for rows.Next() {
		var path models.Path
		if err = rows.Scan(&path.ID, &path.Name, &path.Description, &path.Public); err != nil {
			return nil, errors.Wrap(err, "scan path")
		}
		paths = append(paths, path)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	for i := range paths {
		if paths[i].Steps, err = r.steps(ctx, paths[i].ID); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func (r *PathRepository) Get(ctx context.Context, id int64) (*models.Path, error) {
	stmt := `SELECT id, name, description, public FROM paths WHERE id = ?`
	var path models.Path
	if err := r.dbs.ReadOnly.QueryRowContext(ctx, stmt, id).Scan(&path.ID, &path.Name,
		&path.Description, &path.Public); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read path", slog.Int64("path_id", id))
	}
	var err error
	if path.Steps, err = r.steps(ctx, id); err != nil {
		return nil, err
	}
	return &path, nil
}

func (r *PathRepository) steps(ctx context.Context, pathID int64) ([]models.PathSimulation, error) {
	stmt := `SELECT id, simulation_id, order_index, max_attempts
FROM path_simulations
WHERE path_id = ?
ORDER BY order_index`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt, pathID)
	if err != nil {
		return nil, errors.Wrap(err, "query path steps")
	}
	defer closeRows(rows, r.logger)

	var steps []models.PathSimulation
	for rows.Next() {
		var step models.PathSimulation
		if err = rows.Scan(&step.ID, &step.SimulationID, &step.OrderIndex, &step.MaxAttempts); err != nil {
			return nil, errors.Wrap(err, "scan path step")
		}
		steps = append(steps, step)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return steps, nil
}

// Create inserts the path and its steps in one transaction. Steps get
// consecutive order indexes in the order given.
func (r *PathRepository) Create(ctx context.Context, path *models.Path) error {
	tx, err := r.dbs.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer rollback(tx, r.logger)

	if err = tx.QueryRowContext(ctx,
		`INSERT INTO paths (name, description, public) VALUES (@name, @description, @public) RETURNING id`,
		sql.Named("name", path.Name),
		sql.Named("description", path.Description),
		sql.Named("public", path.Public)).Scan(&path.ID); err != nil {
		return errors.Wrap(err, "insert path")
	}
	if err = insertSteps(ctx, tx, path.ID, path.Steps); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Update replaces the path's attributes and its step list. Progress rows of
// removed steps cascade away with the step.
func (r *PathRepository) Update(ctx context.Context, path models.Path) error {
	tx, err := r.dbs.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer rollback(tx, r.logger)

	result, err := tx.ExecContext(ctx,
		`UPDATE paths SET name = @name, description = @description, public = @public WHERE id = @id`,
		sql.Named("id", path.ID),
		sql.Named("name", path.Name),
		sql.Named("description", path.Description),
		sql.Named("public", path.Public))
	if err != nil {
		return errors.Wrap(err, "update path")
	}
	if err = requireRowAffected(result); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM path_simulations WHERE path_id = ?`, path.ID); err != nil {
		return errors.Wrap(err, "delete path steps")
	}
	if err = insertSteps(ctx, tx, path.ID, path.Steps); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

func (r *PathRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM paths WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete path", slog.Int64("path_id", id))
	}
	return nil
}

func insertSteps(ctx context.Context, tx *sql.Tx, pathID int64, steps []models.PathSimulation) error {
	stmt := `INSERT INTO path_simulations (path_id, simulation_id, order_index, max_attempts)
VALUES (@path_id, @simulation_id, @order_index, @max_attempts)
RETURNING id`
	for i := range steps {
		steps[i].OrderIndex = i
		if err := tx.QueryRowContext(ctx, stmt,
			sql.Named("path_id", pathID),
			sql.Named("simulation_id", steps[i].SimulationID),
			sql.Named("order_index", steps[i].OrderIndex),
			sql.Named("max_attempts", steps[i].MaxAttempts),
		).Scan(&steps[i].ID); err != nil {
			return errors.Wrap(err, "insert path step")
		}
	}
	return nil
}

// Progress returns the user's progress rows for one path keyed by step id.
func (r *PathRepository) Progress(ctx context.Context, pathID int64, userID []byte) (map[int64]*models.PathProgress, error) {
	stmt := `SELECT path_id, path_simulation_id, user_id, attempts_used, completed, last_attempt_failed
FROM path_progress
WHERE path_id = @path_id
  AND user_id = @user_id`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt,
		sql.Named("path_id", pathID), sql.Named("user_id", userID))
	if err != nil {
		return nil, errors.Wrap(err, "query path progress")
	}
	defer closeRows(rows, r.logger)

	progress := map[int64]*models.PathProgress{}
	for rows.Next() {
		var record models.PathProgress
		if err = rows.Scan(&record.PathID, &record.PathSimulationID, &record.UserID,
			&record.AttemptsUsed, &record.Completed, &record.LastAttemptFailed); err != nil {
			return nil, errors.Wrap(err, "scan path progress")
		}
		progress[record.PathSimulationID] = &record
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return progress, nil
}

// StartAttempt consumes one attempt of the step for the user and returns the
// updated progress record. Replaying a completed step resets the counter to one
// and clears the completion so that the new run counts on its own. Exhausted
// steps return ErrNoAttemptsLeft.
func (r *PathRepository) StartAttempt(ctx context.Context, pathID int64, step models.PathSimulation, userID []byte) (*models.PathProgress, error) {
	tx, err := r.dbs.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	defer rollback(tx, r.logger)

	var record models.PathProgress
	err = tx.QueryRowContext(ctx,
		`SELECT path_id, path_simulation_id, user_id, attempts_used, completed, last_attempt_failed
FROM path_progress
WHERE path_id = @path_id
  AND path_simulation_id = @path_simulation_id
  AND user_id = @user_id`,
		sql.Named("path_id", pathID),
		sql.Named("path_simulation_id", step.ID),
		sql.Named("user_id", userID),
	).Scan(&record.PathID, &record.PathSimulationID, &record.UserID,
		&record.AttemptsUsed, &record.Completed, &record.LastAttemptFailed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		record = models.PathProgress{
			PathID:           pathID,
			PathSimulationID: step.ID,
			UserID:           userID,
			AttemptsUsed:     1,
		}
	case err != nil:
		return nil, errors.Wrap(err, "read path progress")
	case record.Completed:
		// Replay of a completed step starts a fresh run.
		record.AttemptsUsed = 1
		record.Completed = false
		record.LastAttemptFailed = false
	case record.AttemptsUsed >= step.MaxAttempts:
		return nil, ErrNoAttemptsLeft
	default:
		record.AttemptsUsed++
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO path_progress (path_id, path_simulation_id, user_id, attempts_used, completed, last_attempt_failed)
VALUES (@path_id, @path_simulation_id, @user_id, @attempts_used, @completed, @last_attempt_failed)
ON CONFLICT (path_id, path_simulation_id, user_id) DO UPDATE SET attempts_used       = excluded.attempts_used,
                                                                 completed           = excluded.completed,
                                                                 last_attempt_failed = excluded.last_attempt_failed`,
		sql.Named("path_id", record.PathID),
		sql.Named("path_simulation_id", record.PathSimulationID),
		sql.Named("user_id", record.UserID),
		sql.Named("attempts_used", record.AttemptsUsed),
		sql.Named("completed", record.Completed),
		sql.Named("last_attempt_failed", record.LastAttemptFailed)); err != nil {
		return nil, errors.Wrap(err, "upsert path progress")
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit transaction")
	}
	return &record, nil
}

// FinishAttempt records the outcome of the attempt started by StartAttempt.
func (r *PathRepository) FinishAttempt(ctx context.Context, pathID, pathSimulationID int64, userID []byte, completed bool) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx,
		`UPDATE path_progress
SET completed           = @completed,
    last_attempt_failed = @last_attempt_failed
WHERE path_id = @path_id
  AND path_simulation_id = @path_simulation_id
  AND user_id = @user_id`,
		sql.Named("completed", completed),
		sql.Named("last_attempt_failed", !completed),
		sql.Named("path_id", pathID),
		sql.Named("path_simulation_id", pathSimulationID),
		sql.Named("user_id", userID))
	if err != nil {
		return errors.Wrap(err, "update path progress")
	}
	return requireRowAffected(result)
}
