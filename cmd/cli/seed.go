package main

import (
	"fmt"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/repositories"
	"github.com/spf13/cobra"
)

// seedCmd inserts a demo scenario for trying out the product. The startup
// fixtures already provide a minimal one; this adds a second, meaner call.
var seedCmd = &cobra.Command{ //nolint:exhaustruct // cobra commands are sparse by design
	Use:   "seed",
	Short: "Insert a demo training scenario",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		dbs, logger, err := openDatabase(ctx)
		if err != nil {
			return errors.Wrap(err, "open database")
		}
		defer func() {
			_ = dbs.Close()
		}()

		mood := models.Mood{ //nolint:exhaustruct // ID is assigned on insert
			Name: "Dismissive",
			Behaviors: []models.MoodBehavior{
				{ThresholdPercentage: 0, BehaviorText: "Gives curt one-line answers and checks the time."},       //nolint:exhaustruct
				{ThresholdPercentage: 50, BehaviorText: "Talks over the trainee and questions their competence."}, //nolint:exhaustruct
			},
		}
		if err = repositories.NewMoodRepository(dbs, logger).Create(ctx, &mood); err != nil {
			return errors.Wrap(err, "create mood")
		}

		character := models.Character{ //nolint:exhaustruct // ID is assigned on insert
			Name:        "Jorma Keto",
			Description: "A long-time business customer threatening to cancel a five-year contract over a billing mistake.",
			MoodID:      &mood.ID,
			Intensity:   55,
		}
		if err = repositories.NewCharacterRepository(dbs, logger).Create(ctx, &character); err != nil {
			return errors.Wrap(err, "create character")
		}

		setting := models.AISetting{Name: "Demo", APIKey: "", Model: "gpt-4o-mini"} //nolint:exhaustruct
		if err = repositories.NewAISettingRepository(dbs, logger).Create(ctx, &setting); err != nil {
			return errors.Wrap(err, "create ai setting")
		}

		simulation := models.Simulation{ //nolint:exhaustruct // ID is assigned on insert
			Name:        "Contract cancellation call",
			Objective:   "Keep the customer from cancelling and rebuild trust.",
			Context:     "The customer was double-billed two months in a row and support tickets went unanswered.",
			CharacterID: character.ID,
			AISettingID: setting.ID,
			CharacterKeypoints: []string{
				"The double billing happened twice",
				"Two support tickets were never answered",
			},
			PlayerKeypoints: []string{
				"Acknowledge the billing mistake without excuses",
				"Promise a named contact for the refund",
			},
			MaxInteractions: 12,
		}
		if err = repositories.NewSimulationRepository(dbs, logger).Create(ctx, &simulation); err != nil {
			return errors.Wrap(err, "create simulation")
		}

		path := models.Path{ //nolint:exhaustruct // ID is assigned on insert
			Name:        "Retention calls",
			Description: "Practice keeping unhappy customers on board.",
			Public:      false,
			Steps: []models.PathSimulation{
				{SimulationID: simulation.ID, MaxAttempts: 3}, //nolint:exhaustruct
			},
		}
		if err = repositories.NewPathRepository(dbs, logger).Create(ctx, &path); err != nil {
			return errors.Wrap(err, "create path")
		}

		fmt.Printf("seeded simulation %d (%s) on path %d (%s)\n",
			simulation.ID, simulation.Name, path.ID, path.Name)
		return nil
	},
}
