package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/sqlite"
)

type SimulationRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewSimulationRepository(dbs *sqlite.Database, logger *slog.Logger) *SimulationRepository {
	return &SimulationRepository{
		dbs:    dbs,
		logger: logger.With("source", "SimulationRepository"),
	}
}

const simulationColumns = `id, name, objective, context, rules, character_id, ai_setting_id,
character_keypoints, player_keypoints, max_interactions`

func scanSimulation(row interface{ Scan(...any) error }) (*models.Simulation, error) {
	var (
		simulation         models.Simulation
		characterKeypoints string
		playerKeypoints    string
	)
	if err := row.Scan(&simulation.ID, &simulation.Name, &simulation.Objective, &simulation.Context,
		&simulation.Rules, &simulation.CharacterID, &simulation.AISettingID,
		&characterKeypoints, &playerKeypoints, &simulation.MaxInteractions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(characterKeypoints), &simulation.CharacterKeypoints); err != nil {
		return nil, errors.Wrap(err, "unmarshal character keypoints")
	}
	if err := json.Unmarshal([]byte(playerKeypoints), &simulation.PlayerKeypoints); err != nil {
		return nil, errors.Wrap(err, "unmarshal player keypoints")
	}
	return &simulation, nil
}

func (r *SimulationRepository) List(ctx context.Context) ([]models.Simulation, error) {
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, `SELECT `+simulationColumns+` FROM simulations ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "query simulations")
	}
	defer closeRows(rows, r.logger)

	var simulations []models.Simulation
	for rows.Next() {
		simulation, err := scanSimulation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan simulation")
		}
		simulations = append(simulations, *simulation)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return simulations, nil
}

func (r *SimulationRepository) Get(ctx context.Context, id int64) (*models.Simulation, error) {
	row := r.dbs.ReadOnly.QueryRowContext(ctx, `SELECT `+simulationColumns+` FROM simulations WHERE id = ?`, id)
	simulation, err := scanSimulation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read simulation", slog.Int64("simulation_id", id))
	}
	return simulation, nil
}

func (r *SimulationRepository) Create(ctx context.Context, simulation *models.Simulation) error {
	params, err := simulationParams(simulation)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO simulations (name, objective, context, rules, character_id, ai_setting_id,
character_keypoints, player_keypoints, max_interactions)
VALUES (@name, @objective, @context, @rules, @character_id, @ai_setting_id,
@character_keypoints, @player_keypoints, @max_interactions)
RETURNING id`
	if err = r.dbs.ReadWrite.QueryRowContext(ctx, stmt, params...).Scan(&simulation.ID); err != nil {
		return errors.Wrap(err, "insert simulation")
	}
	return nil
}

func (r *SimulationRepository) Update(ctx context.Context, simulation models.Simulation) error {
	params, err := simulationParams(&simulation)
	if err != nil {
		return err
	}
	params = append(params, sql.Named("id", simulation.ID))
	stmt := `UPDATE simulations
SET name                = @name,
    objective           = @objective,
    context             = @context,
    rules               = @rules,
    character_id        = @character_id,
    ai_setting_id       = @ai_setting_id,
    character_keypoints = @character_keypoints,
    player_keypoints    = @player_keypoints,
    max_interactions    = @max_interactions
WHERE id = @id`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, params...)
	if err != nil {
		return errors.Wrap(err, "update simulation")
	}
	return requireRowAffected(result)
}

func (r *SimulationRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete simulation", slog.Int64("simulation_id", id))
	}
	return nil
}

func simulationParams(simulation *models.Simulation) ([]any, error) {
	characterKeypoints, err := marshalKeypoints(simulation.CharacterKeypoints)
	if err != nil {
		return nil, err
	}
	playerKeypoints, err := marshalKeypoints(simulation.PlayerKeypoints)
	if err != nil {
		return nil, err
	}
	return []any{
		sql.Named("name", simulation.Name),
		sql.Named("objective", simulation.Objective),
		sql.Named("context", simulation.Context),
		sql.Named("rules", simulation.Rules),
		sql.Named("character_id", simulation.CharacterID),
		sql.Named("ai_setting_id", simulation.AISettingID),
		sql.Named("character_keypoints", characterKeypoints),
		sql.Named("player_keypoints", playerKeypoints),
		sql.Named("max_interactions", simulation.MaxInteractions),
	}, nil
}

// marshalKeypoints stores nil as an empty JSON array so that scans round-trip.
func marshalKeypoints(keypoints []string) (string, error) {
	if keypoints == nil {
		return "[]", nil
	}
	encoded, err := json.Marshal(keypoints)
	if err != nil {
		return "", errors.Wrap(err, "marshal keypoints")
	}
	return string(encoded), nil
}
