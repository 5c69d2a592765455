package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/config"
	"biodiversity-quiz/internal/infra/postgres"
	redisstore "biodiversity-quiz/internal/infra/redis"
)

// NewSeedCmd writes a catalog file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the question catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML to seed (defaults to quiz.catalog, then the embedded catalog)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if file == "" {
		file = cfg.Quiz.Catalog
	}

	// Validate before touching the database.
	b, err := bank.Load(ctx, bank.FileLoader{Path: file})
	if err != nil {
		return err
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.NewQuestionLoader(pool).Seed(ctx, b.Sets()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "seed: catalog written", "ageGroups", b.Groups())

	rc, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rc == nil {
		return nil
	}
	defer rc.Close()

	cache := redisstore.NewQuestionCache(rc, nil, cfg.RedisPrefix(), config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute))
	if err := cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	slog.InfoContext(ctx, "seed: catalog cache invalidated")
	return nil
}
