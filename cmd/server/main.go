package main

import (
	"context"
	"fmt"

	"sportsmatch/internal/config"
	fxmodules "sportsmatch/internal/fx"
	"sportsmatch/internal/jobs"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	app *fiber.App,
	scheduler *jobs.Scheduler,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", addr).Bool("scheduler", scheduler.IsRunning()).Msg("server starting")
				if err := app.Listen(addr); err != nil {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
