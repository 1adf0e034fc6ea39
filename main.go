package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/cache"
	"github.com/ekaya-inc/pantry-engine/pkg/config"
	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/handlers"
	"github.com/ekaya-inc/pantry-engine/pkg/logging"
	"github.com/ekaya-inc/pantry-engine/pkg/mcp"
	"github.com/ekaya-inc/pantry-engine/pkg/mcp/tools"
	"github.com/ekaya-inc/pantry-engine/pkg/metrics"
	"github.com/ekaya-inc/pantry-engine/pkg/middleware"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
	"github.com/ekaya-inc/pantry-engine/pkg/server"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
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

	if err := run(cfg, logger); err != nil {
		logger.Error("pantry-engine stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.Bool("redis", cfg.Redis.Host != ""),
		zap.Duration("sweep_interval", cfg.Expiration.SweepInterval))

	db, err := database.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cfg.MigrationsPath, logger); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Stock sets are cached in Redis when configured; otherwise every
	// recommendation reads stock from PostgreSQL.
	var source repositories.RecommendationSource = repositories.NewRecommendationSource()
	var invalidator cache.StockInvalidator = cache.Noop{}
	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		stockCache := cache.NewStockCache(source, redisClient, cfg.Recommendation.StockCacheTTL, logger, m)
		source = stockCache
		invalidator = stockCache
	}

	location, err := cfg.Expiration.Location()
	if err != nil {
		return err
	}

	// Repositories
	userRepo := repositories.NewUserRepository()
	recipeRepo := repositories.NewRecipeRepository()
	tagRepo := repositories.NewTagRepository()
	ingredientRepo := repositories.NewIngredientRepository()
	stockRepo := repositories.NewStockRepository()
	notificationRepo := repositories.NewNotificationRepository()

	// Services
	userService := services.NewUserService(userRepo, logger)
	recommendationService := services.NewRecommendationService(userRepo, recipeRepo, source, cfg.Recommendation.Limit, m, logger)
	recipeService := services.NewRecipeService(recipeRepo, tagRepo, cfg.Recipes.PageSize, logger)
	ingredientService := services.NewIngredientService(ingredientRepo, logger)
	stockService := services.NewStockService(stockRepo, ingredientRepo, invalidator, logger)
	notificationService := services.NewNotificationService(notificationRepo, logger)
	expirationService := services.NewExpirationService(db, stockRepo, notificationRepo, invalidator, location, cfg.Expiration.NotifyDaysAhead, m, logger)

	// Auth
	sessionManager, err := auth.NewSessionManager(&cfg.Session, logger)
	if err != nil {
		return err
	}
	authMiddleware := auth.NewMiddleware(sessionManager, logger)
	scope := database.WithScopeContext(db, logger)

	// MCP
	mcpServer := mcp.NewServer("pantry-engine", cfg.Version, logger)
	mcpServer.RegisterPantryTools(&tools.PantryToolDeps{
		DB:                    db,
		RecommendationService: recommendationService,
		StockService:          stockService,
		Logger:                logger,
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(userService, sessionManager, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewRecommendationHandler(recommendationService, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewRecipesHandler(recipeService, cfg.BaseURL, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewIngredientsHandler(ingredientService, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewStockHandler(stockService, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewNotificationsHandler(notificationService, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, authMiddleware)
	mux.Handle("GET /metrics", m.Handler())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           middleware.RequestLogger(logger, m)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting pantry-engine",
			zap.String("addr", httpServer.Addr),
			zap.String("version", cfg.Version))
		return server.Serve(gctx, httpServer, 15*time.Second, logger)
	})

	if cfg.Expiration.SweepInterval > 0 {
		g.Go(func() error {
			return expirationService.RunScheduler(gctx, cfg.Expiration.SweepInterval)
		})
	} else {
		logger.Info("Expiration sweep worker disabled")
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("pantry-engine stopped")
	return nil
}
