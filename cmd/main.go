package main

import (
	"chessrelay/backend/internal/api/handler"
	"chessrelay/backend/internal/chathub"
	"chessrelay/backend/internal/config"
	"chessrelay/backend/internal/storage"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func setupStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage.Service, func()) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := storage.OpenPostgres(connectCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("postgres.connect", "err", err)
		os.Exit(1)
	}
	rdb, err := storage.NewRedis(connectCtx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Error("redis.connect", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}

	s := storage.NewStorageService(db, rdb, logger)
	if err := s.Migrate(connectCtx); err != nil {
		logger.Error("postgres.migrate", "err", err)
		os.Exit(1)
	}
	logger.Info("storage.ready", "redis", cfg.RedisAddr)

	return s, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = rdb.Close()
	}
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := config.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("dotenv.skipped", "err", envErr)
	}
	logger.Info("relay.starting", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := setupStorage(ctx, cfg, logger)
	defer closeStore()

	presence := chathub.NewPresenceNotifier(store, cfg.PresenceTimeout, logger)
	hub := chathub.NewManagerService(presence, logger)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	h := handler.NewHandler(hub, cfg, logger)
	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        h.Router(),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http.listen", "err", err)
			stop()
		}
	}()
	logger.Info("relay.listening", "addr", cfg.HTTPAddr)

	<-ctx.Done()
	logger.Info("relay.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http.shutdown", "err", err)
	}

	stopHub()
	<-hub.Done()
	presence.Wait()
	logger.Info("relay.stopped")
}
