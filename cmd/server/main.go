package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesdash/backend/internal/cache"
	"salesdash/backend/internal/config"
	"salesdash/backend/internal/httpapi"
	"salesdash/backend/internal/logging"
	"salesdash/backend/internal/service"
	"salesdash/backend/internal/store"
	"salesdash/backend/internal/store/memory"
	pgstore "salesdash/backend/internal/store/postgres"
	litestore "salesdash/backend/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start with a fallback store")
		}
		repo = pg
		closers = append(closers, pg.Close)
		logging.Info().Msg("row store: postgres")
	case cfg.SQLitePath != "":
		lite, err := litestore.New(ctx, cfg.SQLitePath)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite unavailable and SQLITE_PATH is set; refusing to start with a fallback store")
		}
		repo = lite
		closers = append(closers, lite.Close)
		logging.Info().Str("path", cfg.SQLitePath).Msg("row store: sqlite")
	default:
		repo = memory.NewSeeded()
		logging.Info().Msg("row store: in-memory (seeded demo data)")
	}

	reports := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, using noop report cache")
		} else {
			reports = redisCache
			closers = append(closers, redisCache.Close)
			logging.Info().Msg("report cache: redis")
		}
	} else {
		logging.Info().Msg("report cache: noop")
	}

	svc := service.New(repo, reports, time.Duration(cfg.ReportTTLSeconds)*time.Second)
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", cfg.Address()).Msg("sales dashboard API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logging.Error().Err(err).Msg("close error")
		}
	}

	logging.Info().Msg("server stopped")
}
