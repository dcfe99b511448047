package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"lol-reporter/internal/config"
	"lol-reporter/internal/constants"
	"lol-reporter/internal/delivery"
	fxmodules "lol-reporter/internal/fx"
	"lol-reporter/internal/middleware"
	"lol-reporter/internal/scheduler"
	"lol-reporter/internal/server"
	"lol-reporter/internal/service"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runBot),
	).Run()
}

func runBot(
	lc fx.Lifecycle,
	sched *scheduler.Scheduler,
	cycles *service.CycleService,
	telegram *delivery.Telegram,
	admin *server.AdminServer,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()
	admin.Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AdminPort),
		Handler: middleware.RequestID(logger)(c.Handler(mux)),
	}

	schedCtx, stopSched := context.WithCancel(context.Background())
	schedDone := make(chan struct{})

	telegram.SetTrigger(cycles)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			telegram.Start()

			go func() {
				defer close(schedDone)
				if err := sched.Run(schedCtx, cycles.ScheduledDaily, cycles.ScheduledMonthly); err != nil {
					logger.Info().Err(err).Msg("scheduler stopped")
				}
			}()

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("admin server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("admin server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			stopSched()
			select {
			case <-schedDone:
			case <-shutdownCtx.Done():
				logger.Warn().Msg("scheduler did not stop before shutdown deadline")
			}

			telegram.Stop()

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing journal database")
			}

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("admin server shutdown failed")
				return err
			}
			logger.Info().Msg("stopped gracefully")
			return nil
		},
	})
}
