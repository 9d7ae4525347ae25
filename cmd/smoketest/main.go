package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/simcoach/simcoach/internal/e2etest"
	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/logging"
)

// testAuth registers a throwaway passkey user, signs out, and signs back in.
func testAuth(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if err := client.Register(ctx); err != nil {
		return errors.Wrap(err, "register user")
	}
	if err := client.Logout(ctx); err != nil {
		return errors.Wrap(err, "logout user")
	}
	if err := client.Login(ctx); err != nil {
		return errors.Wrap(err, "login user")
	}
	return nil
}

// testPublicPaths checks that the guest surface serves the published paths.
func testPublicPaths(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	var paths []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := client.GetJSON(ctx, "/api/public/paths", &paths); err != nil {
		return errors.Wrap(err, "list public paths")
	}
	return nil
}

func main() {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	client, err := e2etest.NewClient(url, hostname, url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = testAuth(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing auth", errors.SlogError(err))
		os.Exit(1)
	}
	if err = testPublicPaths(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing public paths", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
