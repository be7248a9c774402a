package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/livepoll/internal/config"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "maximum duration of the recount")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	db, err := sql.Open("postgres", cfg.Database.ConnString())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		slog.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	tallyService := services.NewTallyService(postgres.NewTallyRepository(db))

	slog.Info("starting tally audit")

	corrections, err := tallyService.RecountAll(ctx)
	for _, c := range corrections {
		slog.Warn("corrected option tally",
			"poll", c.PollID, "option", c.OptionID, "cached", c.Cached, "actual", c.Actual)
	}
	if err != nil {
		slog.Error("tally audit finished with errors", "corrections", len(corrections), "error", err)
		os.Exit(1)
	}

	slog.Info("tally audit completed", "corrections", len(corrections))
}
