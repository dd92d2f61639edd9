package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/successapp/success/internal/cache"
	"github.com/successapp/success/internal/config"
	"github.com/successapp/success/internal/logging"
	"github.com/successapp/success/internal/printer"
	"github.com/successapp/success/internal/server"
	"github.com/successapp/success/internal/session"
	"github.com/successapp/success/pkg/docstore"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the Success HTTP server.

Configuration is read from environment variables, with an optional .env file
for local development. The server needs a reachable Redis for shared state;
without it the gratitude journal still works from the local cache.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", ".", "Directory holding the optional .env file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return printer.Error(
			"Invalid configuration",
			err.Error(),
			[]string{"Check the .env file and environment variables"},
		)
	}
	if cfg.JWTSecret == "" {
		return printer.Error(
			"Missing JWT secret",
			"Sessions cannot be issued without a signing secret.",
			[]string{"Set JWT_SECRET in the environment or .env file"},
		)
	}

	log, err := logging.New(cfg.LogDir)
	if err != nil {
		return printer.Error("Cannot open log directory", err.Error(), nil)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs := docstore.NewClient(cfg.RedisOptions())
	defer docs.Close()
	if err := docs.Ping(ctx); err != nil {
		// Redis being down is degraded, not fatal: the journal still has its
		// local cache, and stores reconnect per subscription attempt.
		printer.Warning("Redis at %s is unreachable: %v\n", cfg.RedisAddr(), err)
		log.Warnw("document store unreachable at startup", "addr", cfg.RedisAddr(), "error", err)
	}

	local, err := cache.Open(cfg.CachePath)
	if err != nil {
		return printer.Error(
			"Cannot open local cache",
			err.Error(),
			[]string{"Check that CACHE_PATH points to a writable location"},
		)
	}
	defer local.Close()

	registry := session.NewRegistry(ctx, docs, local, log)
	defer registry.Close()

	verifier := session.NewGoogleVerifier(cfg.GoogleClientID, "")
	issuer := session.NewTokenIssuer(cfg.JWTSecret)

	srv := server.New(cfg, log, registry, verifier, issuer)
	printer.Success("Listening on :%s\n", cfg.ServerPort)
	return srv.Run(ctx)
}
