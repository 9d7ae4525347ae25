package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/repositories"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{ //nolint:exhaustruct // cobra commands are sparse by design
	Use:       "list {characters|moods|simulations|paths|chats}",
	Short:     "List configured content",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"characters", "moods", "simulations", "paths", "chats"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dbs, logger, err := openDatabase(ctx)
		if err != nil {
			return errors.Wrap(err, "open database")
		}
		defer func() {
			_ = dbs.Close()
		}()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer func() {
			_ = w.Flush()
		}()

		switch args[0] {
		case "characters":
			characters, err := repositories.NewCharacterRepository(dbs, logger).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list characters")
			}
			fmt.Fprintln(w, "ID\tNAME\tINTENSITY")
			for _, character := range characters {
				fmt.Fprintf(w, "%d\t%s\t%d\n", character.ID, character.Name, character.Intensity)
			}
		case "moods":
			moods, err := repositories.NewMoodRepository(dbs, logger).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list moods")
			}
			fmt.Fprintln(w, "ID\tNAME\tBEHAVIORS")
			for _, mood := range moods {
				fmt.Fprintf(w, "%d\t%s\t%d\n", mood.ID, mood.Name, len(mood.Behaviors))
			}
		case "simulations":
			simulations, err := repositories.NewSimulationRepository(dbs, logger).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list simulations")
			}
			fmt.Fprintln(w, "ID\tNAME\tCHARACTER\tMAX INTERACTIONS")
			for _, simulation := range simulations {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n",
					simulation.ID, simulation.Name, simulation.CharacterID, simulation.MaxInteractions)
			}
		case "paths":
			paths, err := repositories.NewPathRepository(dbs, logger).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list paths")
			}
			fmt.Fprintln(w, "ID\tNAME\tPUBLIC\tSTEPS")
			for _, path := range paths {
				fmt.Fprintf(w, "%d\t%s\t%t\t%d\n", path.ID, path.Name, path.Public, len(path.Steps))
			}
		case "chats":
			chats, err := repositories.NewChatRepository(dbs, logger).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list chats")
			}
			fmt.Fprintln(w, "ID\tSIMULATION\tSTATUS\tMESSAGES\tCREATED")
			for _, chat := range chats {
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n",
					chat.ID, chat.SimulationID, chat.Status, len(chat.Messages),
					chat.CreatedAt.Format(time.RFC3339))
			}
		}
		return nil
	},
}
