// cmd/dashboard-api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"sales-dashboard/internal/common/config"
	"sales-dashboard/internal/common/database"
	"sales-dashboard/internal/common/logger"
	"sales-dashboard/internal/common/observability"
	"sales-dashboard/internal/common/server"
	"sales-dashboard/internal/dashboard"
	"sales-dashboard/internal/dashboard/handler"
	"sales-dashboard/internal/dashboard/seeding"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting dashboard API",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, prometheus.DefaultRegisterer, log)
	defer obs.Shutdown(context.Background())

	// --- Init Elasticsearch: one ping, a failure only warns ---
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch, log)
	if err != nil {
		zapLog.Fatal("elasticsearch client init failed", zap.Error(err))
	}
	if esClient.CheckConnection(ctx) {
		zapLog.Info("Elasticsearch connected successfully", zap.String("url", cfg.Database.Elasticsearch.GetURL()))
	} else {
		zapLog.Warn("Elasticsearch not reachable at startup", zap.String("url", cfg.Database.Elasticsearch.GetURL()))
	}

	seederOpts := []seeding.Option{}

	// --- Redis (optional) guards sample data regeneration ---
	if cfg.Database.Redis.Enabled() {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully, seed lock enabled")

		seederOpts = append(seederOpts, seeding.WithLocker(redis, config.GetDuration(cfg.Database.Redis.SeedLockTTL)))
	}

	index := cfg.Database.Elasticsearch.Index
	seeder := seeding.NewSeeder(esClient, index, log.WithFields(map[string]interface{}{"component": "seeder"}), seederOpts...)

	svc := dashboard.NewService(esClient, seeder, dashboard.Config{
		Index:          index,
		MaxRecentLimit: cfg.Dashboard.MaxRecentLimit,
		SearchFields:   cfg.Dashboard.SearchFields,
	}, obs, log.WithFields(map[string]interface{}{"component": "dashboard"}))

	h := handler.NewHandler(svc, cfg.Dashboard.DefaultRecentLimit, log.WithFields(map[string]interface{}{"component": "handler"}))
	srv := server.New(cfg.Server, log.WithFields(map[string]interface{}{"component": "http"}), h)

	if err := srv.Run(ctx); err != nil {
		zapLog.Error("HTTP server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Dashboard API stopped")
}
