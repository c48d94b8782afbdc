package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkwell/api/internal/analytics"
	"github.com/inkwell/api/internal/cache"
	"github.com/inkwell/api/internal/config"
	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/handlers"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/router"

	_ "github.com/inkwell/api/docs"
)

// @title Inkwell API
// @version 1.0
// @description Blogging platform with author analytics
// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type: Bearer {token}
func main() {
	cfg := config.Load()
	middleware.SetLogLevel(cfg.LogLevel)

	if err := database.Connect(cfg.MongoURI, cfg.DBName); err != nil {
		slog.Error("mongo_connect_failed", "error", err.Error())
		os.Exit(1)
	}
	defer database.Disconnect()

	if err := database.EnsureIndexes(); err != nil {
		slog.Warn("ensure_indexes_failed", "error", err.Error())
	}

	handlers.ConfigureDashboard(analytics.NewAggregator(cfg.Analytics.Options()), dashboardCache(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server_starting",
			"addr", srv.Addr,
			"swagger", "http://localhost"+srv.Addr+"/swagger/",
			"timezone", cfg.Analytics.Location.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server_failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err.Error())
	}
	slog.Info("server_stopped")
}

// dashboardCache connects to Redis when configured. Without Redis every
// dashboard request is computed.
func dashboardCache(cfg *config.Config) cache.Dashboard {
	if cfg.RedisAddr == "" {
		slog.Info("dashboard_cache_disabled")
		return cache.Noop{}
	}
	rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err.Error())
		return cache.Noop{}
	}
	return cache.NewRedisDashboard(rdb, cfg.CacheTTL, cfg.Analytics.Location)
}
