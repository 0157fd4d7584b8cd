package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/config"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/infra"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/middleware"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/router"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Async side effects: stock alert mails through the Redis worker pool.
	mailer := infra.NewMailer(cfg)
	worker.StartWorkerPool(ctx, rdb, worker.Handlers{
		worker.JobStockAlert: worker.NewAlertWorker(mailer, cfg.AlertEmail),
	}, cfg.WorkerPoolSize)

	// One lock table for HTTP mutations and the reconcile job.
	locks := ledger.NewKeyedMutex()
	limiters := router.NewLimiters(cfg)
	go middleware.PurgeLoop(ctx, limiters.API, limiters.Login)

	fabricSvc := service.NewFabricService(
		repository.NewFabricRepository(db),
		repository.NewProductRepository(db),
		repository.NewTransactionRepository(db),
		locks,
		worker.NewDispatcher(rdb),
	)
	reconcile, err := worker.StartReconcileCron(ctx, cfg.ReconcileSchedule, fabricSvc)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReconcileSchedule).Msg("invalid reconcile schedule")
	}
	if err := worker.ScheduleDLQReplay(ctx, reconcile, cfg.DLQReplaySchedule, rdb); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.DLQReplaySchedule).Msg("invalid dlq replay schedule")
	}

	r := router.New(cfg, db, rdb, router.Deps{
		Locks:       locks,
		EmbeddingCB: infra.NewCircuitBreaker(infra.EmbeddingCBConfig(cfg)),
		Limiters:    limiters,
		Mailer:      mailer,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("inventory backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()
	<-reconcile.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
