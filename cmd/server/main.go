package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/livepoll/internal/adapters/broadcast"
	"github.com/vncsmyrnk/livepoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/livepoll/internal/config"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pollRepo, userRepo, closeStore, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	hub := broadcast.NewHub(logger)

	userService := services.NewUserService(userRepo)
	pollService := services.NewPollService(pollRepo, userService)
	voteService := services.NewVoteService(pollRepo, userService)

	handler := http.NewHandler(
		http.NewPollHandler(pollService, hub),
		http.NewVoteHandler(voteService, hub),
		http.NewUserHandler(userService),
		http.NewLiveHandler(hub, http.LiveConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			WriteTimeout:   cfg.WS.WriteTimeout,
			PingInterval:   cfg.WS.PingInterval,
			ReadLimit:      cfg.WS.ReadLimit,
		}),
		cfg.Server.AllowedOrigins,
	)
	server := &stdhttp.Server{Addr: cfg.Server.Address, Handler: handler}

	go func() {
		logger.Info("listening", "address", cfg.Server.Address, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (ports.PollRepository, ports.UserRepository, func(), error) {
	if cfg.Driver == config.DriverMemory {
		store := memory.NewStore()
		return memory.NewPollRepository(store), memory.NewUserRepository(store), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	return postgres.NewPollRepository(db), postgres.NewUserRepository(db), func() { db.Close() }, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
