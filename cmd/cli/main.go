package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/simcoach/simcoach/internal/logging"
	"github.com/simcoach/simcoach/internal/sqlite"
	"github.com/spf13/cobra"
)

var databasePath string

func init() {
	// Missing .env is fine, the environment may be configured by other means.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.PersistentFlags().StringVar(&databasePath, "database", defaultDatabasePath(),
		"path to the SQLite database")
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(listCmd)
}

func defaultDatabasePath() string {
	if url, ok := os.LookupEnv("SIMCOACH_SQLITE_URL"); ok {
		return url
	}
	return "./simcoach.sqlite"
}

var rootCmd = &cobra.Command{ //nolint:exhaustruct // cobra commands are sparse by design
	Use:  "simcoach-cli",
	Long: `Command line utilities for SimCoach.`,
}

// openDatabase connects to the same database the web server uses. The logger
// only reports problems so that command output stays clean.
func openDatabase(ctx context.Context) (*sqlite.Database, *slog.Logger, error) {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{ //nolint:exhaustruct
		Level: slog.LevelWarn,
	})))
	dbs, err := sqlite.NewDatabase(ctx, databasePath, logger)
	if err != nil {
		return nil, nil, err
	}
	return dbs, logger, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
