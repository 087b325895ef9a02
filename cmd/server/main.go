package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ashwinsharma89/adlens/internal/config"
	"github.com/ashwinsharma89/adlens/internal/engine"
	"github.com/ashwinsharma89/adlens/internal/history"
	"github.com/ashwinsharma89/adlens/internal/httpx"
	"github.com/ashwinsharma89/adlens/internal/ingest"
	"github.com/ashwinsharma89/adlens/internal/store"
	"github.com/ashwinsharma89/adlens/internal/utils"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	var hist history.Store
	if cfg.RedisAddr != "" {
		hist = history.NewRedis(cfg.RedisAddr, cfg.HistorySize)
		logger.Info("history backend", slog.String("kind", "redis"), slog.String("addr", cfg.RedisAddr))
	} else {
		hist = history.NewMemory(cfg.HistorySize, func() { utils.HistoryEvictions.Inc() })
	}

	st := store.NewMemoryStore()
	eng := engine.New(cfg, st, hist, logger, nil)
	fetcher := ingest.NewFetcher(ingest.NewHTTPClient(cfg.FetchTimeout))
	r := httpx.NewRouter(logger, eng, fetcher)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
