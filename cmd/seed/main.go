// seed loads a YAML recipe catalog into the database.
//
// Usage: go run ./cmd/seed [-migrate] <catalog.yaml>
//
// Configuration comes from config.yaml and the usual PG* environment
// variables, exactly as for the server. Re-running a file updates recipes
// in place: recipes and tags are keyed by external id, ingredients by name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/catalog"
	"github.com/ekaya-inc/pantry-engine/pkg/config"
	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/logging"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	migrate := flag.Bool("migrate", false, "Apply pending migrations before importing")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-migrate] <catalog.yaml>\n", os.Args[0])
		os.Exit(2)
	}

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

	if err := run(cfg, args[0], *migrate, logger); err != nil {
		logger.Error("Catalog import failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, path string, migrate bool, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := db.Migrate(cfg.MigrationsPath, logger); err != nil {
			return err
		}
	}

	scopedCtx, cleanup, err := db.WithScope(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	importer := catalog.NewImporter(
		repositories.NewIngredientRepository(),
		repositories.NewTagRepository(),
		repositories.NewRecipeRepository(),
		logger,
	)

	summary, err := importer.Import(scopedCtx, file)
	if err != nil {
		return err
	}

	logger.Info("Catalog imported",
		zap.String("file", path),
		zap.Int("recipes", summary.Recipes),
		zap.Int("ingredients", summary.Ingredients),
		zap.Int("tags", summary.Tags),
		zap.Int("failed", summary.Failed))
	return nil
}
