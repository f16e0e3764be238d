package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"aniflix/internal/app"
	"aniflix/internal/config"
	"aniflix/internal/server"
	"aniflix/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:         cfg.DatabaseURL,
		MaxSearchLimit:      cfg.MaxSearchLimit,
		WatchlistFetchLimit: cfg.WatchlistFetchLimit,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                     appCore,
		RedisAddr:               cfg.RedisAddr,
		RedisPassword:           cfg.RedisPassword,
		TrustedProxies:          cfg.TrustedProxies,
		WriteRateLimitPerMinute: cfg.WriteRateLimitPerMinute,
		SeedRateLimitPerMinute:  cfg.SeedRateLimitPerMinute,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("catalog server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
