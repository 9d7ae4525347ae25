package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/simcoach/simcoach/internal/ai"
	"github.com/simcoach/simcoach/internal/envstruct"
	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/logging"
	"github.com/simcoach/simcoach/internal/models"
	"github.com/simcoach/simcoach/internal/pprofserver"
	"github.com/simcoach/simcoach/internal/repositories"
	"github.com/simcoach/simcoach/internal/simulation"
	"github.com/simcoach/simcoach/internal/sqlite"
	"github.com/simcoach/simcoach/internal/webauthnhandler"
)

type config struct {
	Addr      string `env:"SIMCOACH_ADDR" envDefault:"localhost:4000"`
	FQDN      string `env:"SIMCOACH_FQDN" envDefault:"localhost"`
	SqliteURL string `env:"SIMCOACH_SQLITE_URL" envDefault:"./simcoach.sqlite"`
	PprofPort string `env:"SIMCOACH_PPROF_PORT" envDefault:":6060"`
	// OpenAIAPIKey is the fallback key for AI settings that leave theirs empty.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	// OpenAIBaseURL points the OpenAI client at a different host. Tests use it
	// to stub the upstream.
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:""`
}

type application struct {
	logger          *slog.Logger
	sessionManager  *scs.SessionManager
	webAuthnHandler *webauthnhandler.WebAuthnHandler
	runner          *simulation.Runner
	newAIClient     func(models.AISetting) *ai.Client
	characters      *repositories.CharacterRepository
	moods           *repositories.MoodRepository
	aiSettings      *repositories.AISettingRepository
	simulations     *repositories.SimulationRepository
	promptSets      *repositories.PromptSetRepository
	chats           *repositories.ChatRepository
	paths           *repositories.PathRepository
}

func main() {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})))

	// Missing .env is fine, the environment may be configured by other means.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Error("could not load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(context.Background(), logger, os.LookupEnv); err != nil {
		logger.Error("server failed", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse configuration")
	}

	// pprof listens on localhost so that it's not open to the world.
	pprofserver.Launch(cfg.PprofPort, logger)

	dbs, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "connect database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if err := dbs.Close(); err != nil {
			logger.Error("could not close database", errors.SlogError(err))
		}
	}()

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	rpOrigins := []string{fmt.Sprintf("http://%s", cfg.Addr), fmt.Sprintf("https://%s", cfg.FQDN)}
	webAuthnHandler, err := webauthnhandler.New(cfg.FQDN, rpOrigins, logger, sessionManager, dbs)
	if err != nil {
		return errors.Wrap(err, "initialise webauthn")
	}

	newAIClient := func(setting models.AISetting) *ai.Client {
		apiKey := setting.APIKey
		if apiKey == "" {
			apiKey = cfg.OpenAIAPIKey
		}
		return ai.NewClientWithBaseURL(apiKey, setting.Model, cfg.OpenAIBaseURL)
	}
	runner := simulation.NewRunner(dbs, logger, func(setting models.AISetting) simulation.LLM {
		return newAIClient(setting)
	})
	defer runner.Close()

	app := application{
		logger:          logger,
		sessionManager:  sessionManager,
		webAuthnHandler: webAuthnHandler,
		runner:          runner,
		newAIClient:     newAIClient,
		characters:      repositories.NewCharacterRepository(dbs, logger),
		moods:           repositories.NewMoodRepository(dbs, logger),
		aiSettings:      repositories.NewAISettingRepository(dbs, logger),
		simulations:     repositories.NewSimulationRepository(dbs, logger),
		promptSets:      repositories.NewPromptSetRepository(dbs, logger),
		chats:           repositories.NewChatRepository(dbs, logger),
		paths:           repositories.NewPathRepository(dbs, logger),
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}
