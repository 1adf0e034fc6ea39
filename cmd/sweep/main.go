// sweep runs one expiration sweep and exits. It is meant for cron or a
// Kubernetes CronJob when the server runs with the in-process worker
// disabled (EXPIRATION_SWEEP_INTERVAL=0).
//
// Usage: go run ./cmd/sweep [-date YYYY-MM-DD]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/cache"
	"github.com/ekaya-inc/pantry-engine/pkg/config"
	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/logging"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	date := flag.String("date", "", "Sweep as if today were this date (YYYY-MM-DD) in the configured timezone")
	flag.Parse()

	cfg, err := config.Load(Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.IsLocal())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *date, logger); err != nil {
		logger.Error("Expiration sweep failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, date string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := cfg.Expiration.Location()
	if err != nil {
		return err
	}

	now := time.Now()
	if date != "" {
		now, err = time.ParseInLocation(time.DateOnly, date, location)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", date, err)
		}
	}

	db, err := database.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var invalidator cache.StockInvalidator = cache.Noop{}
	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		invalidator = cache.NewStockCache(repositories.NewRecommendationSource(), redisClient, cfg.Recommendation.StockCacheTTL, logger, nil)
	}

	sweeper := services.NewExpirationService(
		db,
		repositories.NewStockRepository(),
		repositories.NewNotificationRepository(),
		invalidator,
		location,
		cfg.Expiration.NotifyDaysAhead,
		nil,
		logger,
	)

	scopedCtx, cleanup, err := db.WithScope(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	result, err := sweeper.Sweep(scopedCtx, now)
	if err != nil {
		return err
	}

	logger.Info("Expiration sweep finished",
		zap.String("today", result.Today.String()),
		zap.Int("disabled", result.Disabled),
		zap.Int("notified", result.Notified))
	return nil
}
