// Package main is the entrypoint for the hinata personalization-backend
// service.
//
// The service supports multiple operational modes via the --mode flag:
//   - worker: builds the Facade (submitObservations, queryObservations,
//     getProfile, chat, getUsage, registerApp — spec §6) and keeps its
//     inline ProfileEngine and tier-migration sweep running; an embedding
//     service wires its own transport against the Facade, since HTTP/RPC
//     framing is explicitly out of scope (spec §1)
//   - profile: standalone ProfileEngine event consumer
//   - maintenance: periodic tier-migration sweep (hot/warm/cold)
//
// Example:
//
//	go run ./cmd/hinata --mode=worker
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hinata/core/internal/app"
	"github.com/hinata/core/internal/platform/config"
	db "github.com/hinata/core/internal/storage"
)

const (
	modeWorker      = "worker"
	modeProfile     = "profile"
	modeMaintenance = "maintenance"
	flagMode        = "mode"
)

func main() {
	mode := flag.String(flagMode, "", "Service mode (worker, profile, maintenance)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application, err := app.New(ctx, cfg, database, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	defer application.Close()

	// Worker mode blocks on its own health server; every other mode runs it
	// in the background.
	if *mode != modeWorker {
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode, &logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, logger *zerolog.Logger) error {
	switch mode {
	case modeWorker:
		return application.RunWorker(ctx)
	case modeProfile:
		return application.RunProfile(ctx)
	case modeMaintenance:
		return application.RunMaintenance(ctx)
	default:
		logger.Fatal().Str(flagMode, mode).Msg("invalid service mode")

		return nil
	}
}
