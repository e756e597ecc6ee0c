package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/config"
	"github.com/ujianku/practice-exam-backend/internal/database"
	"github.com/ujianku/practice-exam-backend/internal/exam"
	"github.com/ujianku/practice-exam-backend/internal/gateway"
	"github.com/ujianku/practice-exam-backend/internal/handler"
	"github.com/ujianku/practice-exam-backend/internal/logger"
	"github.com/ujianku/practice-exam-backend/internal/router"
	"github.com/ujianku/practice-exam-backend/internal/service"
	"github.com/ujianku/practice-exam-backend/internal/validator"
	"github.com/ujianku/practice-exam-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Practice Exam Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Gateway ────────────────────────────────────────────
	pgGateway := gateway.NewPostgresGateway(pool)
	gw := gateway.NewCachingGateway(pgGateway, rdb, cfg.CacheTTL, log)

	// ─── Initialize Exam Manager ───────────────────────────────────────
	retryQueue := worker.NewRetryQueue(rdb)
	manager := exam.NewManager(gw, rdb, retryQueue, cfg.AutosaveInterval, log)

	// ─── Initialize Services ───────────────────────────────────────────
	authService := service.NewAuthService(cfg)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(manager, authService, log),
		Exam:    handler.NewExamHandler(manager),
		Monitor: handler.NewMonitorHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Worker ───────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	snapshotWorker := worker.NewSnapshotWorker(pgGateway, rdb, log)
	go snapshotWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Close controllers so running timers flush their final interval.
	manager.CloseAll()

	// 3. Stop the retry worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
