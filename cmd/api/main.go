package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"marketplace/internal/cache"
	"marketplace/internal/httpapi"
	"marketplace/internal/metrics"
	"marketplace/pkg/config"
	"marketplace/pkg/db"
	"marketplace/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewZap(cfg.LogLevel)
	defer func() { _ = log.Close() }()

	if cfg.Auth.JWTSecret == "" || cfg.Dispatch.Secret == "" {
		log.Error("JWT_SECRET and DISPATCH_SECRET are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Error("db open", zap.Error(err))
		os.Exit(1)
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			log.Error("migrate", zap.Error(err))
			os.Exit(1)
		}
	}

	var listCache cache.ListCache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, list cache disabled", zap.Error(err))
		} else {
			listCache = cache.NewRedis(rdb, cfg.Redis.ListTTL)
		}
	}

	metrics.Register()
	metricsSrv := metrics.NewServer(cfg.Metrics.Enabled, cfg.Metrics.Addr)
	if metricsSrv != nil {
		go func() {
			log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics serve", zap.Error(err))
			}
		}()
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:   cfg,
		DB:    conn,
		Cache: listCache,
		Log:   log.With(zap.String("component", "http")),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Info("shutdown complete")
}
