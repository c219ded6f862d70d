// jobboard-backend — HTTP job-board service.
//
// Catalogues of companies, jobs, candidates, applications, favorites and a
// location directory, with three search flavours on top: hybrid text ranking
// over jobs, an in-memory composite company ranker, and a bounded top-K
// location auto-suggest.
package main

import (
	"context"
	"log/slog"
	"os"

	"jobboard-backend/internal/cache"
	"jobboard-backend/internal/config"
	"jobboard-backend/internal/httpapi"
	"jobboard-backend/internal/logo"
	"jobboard-backend/internal/store"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()
	slog.Info("starting jobboard-backend",
		slog.String("version", version),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
	)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	cache.Init(cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheCleanupInterval)

	if cfg.LocationFile != "" {
		if _, err := st.ImportLocations(context.Background(), cfg.LocationFile); err != nil {
			slog.Warn("location import failed", slog.Any("error", err))
		}
	}

	logos := logo.NewManager(cfg.DataDir, cfg.APIBaseURL)
	app := httpapi.New(cfg, st, logos)

	if err := app.Listen(cfg.Host + ":" + cfg.Port); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
