package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"biodiversity-quiz/internal/app"
	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/config"
	"biodiversity-quiz/internal/event"
	"biodiversity-quiz/internal/infra/memory"
	"biodiversity-quiz/internal/infra/postgres"
	redisstore "biodiversity-quiz/internal/infra/redis"
	"biodiversity-quiz/internal/leaderboard"
	"biodiversity-quiz/internal/report"
	"biodiversity-quiz/internal/scoring"
	"biodiversity-quiz/internal/telemetry"
	transport "biodiversity-quiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// quizRules applies the quiz section to the default rules.
func quizRules(cfg config.Config) (scoring.Rules, scoring.Rules) {
	standard, ultimate := scoring.StandardRules(), scoring.UltimateRules()
	if cfg.Quiz.StandardSeconds > 0 {
		standard.TimeLimit = cfg.Quiz.StandardSeconds
	}
	if cfg.Quiz.UltimateSeconds > 0 {
		ultimate.TimeLimit = cfg.Quiz.UltimateSeconds
	}
	if cfg.Quiz.FastAnswerSeconds > 0 {
		ultimate.FastThreshold = cfg.Quiz.FastAnswerSeconds
	}
	if cfg.Quiz.UltimateQuestions > 0 {
		ultimate.QuestionLimit = cfg.Quiz.UltimateQuestions
	}
	return standard, ultimate
}

// questionLoader picks the catalog source: Postgres when configured, else the
// catalog file (or the embedded catalog), cached in Redis or in memory.
func questionLoader(cfg config.Config, pool *pgxpool.Pool, rc redis.UniversalClient) bank.Loader {
	var loader bank.Loader = bank.FileLoader{Path: cfg.Quiz.Catalog}
	if pool != nil {
		loader = postgres.NewQuestionLoader(pool)
	}

	ttl := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	if rc != nil {
		return redisstore.NewQuestionCache(rc, loader, cfg.RedisPrefix(), ttl)
	}
	return memory.NewQuestionCache(loader, ttl)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		db = openBun(cfg)
		defer db.Close()
	}

	questions, err := bank.Load(ctx, questionLoader(cfg, pool, redisClient))
	if err != nil {
		return err
	}

	var plays app.PlayRepository = memory.NewPlayStore()
	var badgeStore badge.Store = memory.NewBadgeStore()
	var history report.History = memory.NewResultStore()
	if redisClient != nil {
		plays = redisstore.NewPlayStore(redisClient, cfg.RedisPrefix(), redisTTL)
		badgeStore = redisstore.NewBadgeStore(redisClient, cfg.RedisPrefix())
	}
	if db != nil {
		badgeStore = postgres.NewBadgeStore(db)
		history = postgres.NewResultStore(db)
	}
	badges := badge.NewService(badgeStore)

	eb := event.NewBus()
	defer eb.Stop()

	sinks := map[string]report.Sink{"history": report.SinkFunc(history.Save)}
	api := &transport.APIHandler{Bank: questions, Badges: badges, History: history}
	if redisClient != nil {
		board := leaderboard.NewService(leaderboard.Config{
			Redis:         redisClient,
			Prefix:        cfg.LeaderboardPrefix(),
			MinPercentage: cfg.Leaderboard.MinPercentage,
		})
		sinks["leaderboard"] = board
		api.Leaderboard = board
	}
	report.NewRecorder(eb, sinks)

	standard, ultimate := quizRules(cfg)
	service := app.NewQuizService(app.Config{
		Plays:    plays,
		Bank:     questions,
		Badges:   badges,
		EventBus: eb,
		Metrics:  telemetry.NewMetrics(prometheus.DefaultRegisterer),
		Standard: standard,
		Ultimate: ultimate,
	})
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	api.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "starting quiz service",
			"port", finalPort,
			"ageGroups", questions.Groups(),
			"redis", redisClient != nil,
			"postgres", pool != nil,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.InfoContext(ctx, "shutting down server...")
	case <-ctx.Done():
		slog.InfoContext(ctx, "context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
