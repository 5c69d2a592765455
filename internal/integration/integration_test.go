package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"biodiversity-quiz/internal/app"
	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/event"
	"biodiversity-quiz/internal/infra/postgres"
	pgmigrations "biodiversity-quiz/internal/infra/postgres/migrations"
	infraredis "biodiversity-quiz/internal/infra/redis"
	"biodiversity-quiz/internal/leaderboard"
	"biodiversity-quiz/internal/report"
)

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop() {}

func TestStandardSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateDB(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	builtin, err := bank.Builtin()
	if err != nil {
		t.Fatalf("builtin bank: %v", err)
	}
	loader := postgres.NewQuestionLoader(pool)
	if err := loader.Seed(ctx, builtin.Sets()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions, err := bank.Load(ctx, infraredis.NewQuestionCache(redisClient, loader, "it", 5*time.Minute))
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if got := len(questions.Questions(domain.AgeGroupYoung)); got != 8 {
		t.Fatalf("expected 8 young questions from postgres, got %d", got)
	}

	history := postgres.NewResultStore(db)
	board := leaderboard.NewService(leaderboard.Config{Redis: redisClient, Prefix: "it"})
	badges := badge.NewService(postgres.NewBadgeStore(db))

	eb := event.NewBus()
	report.NewRecorder(eb, map[string]report.Sink{
		"history":     report.SinkFunc(history.Save),
		"leaderboard": board,
	})

	service := app.NewQuizService(app.Config{
		Plays:         infraredis.NewPlayStore(redisClient, "it", 5*time.Minute),
		Bank:          questions,
		Badges:        badges,
		EventBus:      eb,
		NewTickerFunc: func(time.Duration) app.Ticker { return idleTicker{} },
	})

	snap, err := service.Start(ctx, app.StartRequest{
		UserID:      "u1",
		DisplayName: "Alice",
		Type:        domain.SessionStandard,
		AgeGroups:   []domain.AgeGroup{domain.AgeGroupYoung},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var completion *app.Completion
	for completion == nil {
		cur, err := service.Snapshot(ctx, snap.SessionID)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		q := findQuestion(t, questions, cur.Question.ID)
		correct, _ := q.CorrectAnswer()
		if _, err := service.SelectAnswer(ctx, snap.SessionID, correct.ID); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, err := service.Submit(ctx, snap.SessionID); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, completion, err = service.Advance(ctx, snap.SessionID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	eb.Stop()

	if completion.Result.Percentage != 100 || !completion.Result.UltimateUnlocked {
		t.Fatalf("unexpected result: %+v", completion.Result)
	}
	if len(completion.NewBadges) != 3 {
		t.Fatalf("expected three new badges, got %+v", completion.NewBadges)
	}

	stored, err := badges.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list badges: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected badges persisted in postgres, got %+v", stored)
	}

	results, err := history.ListByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(results) != 1 || len(results[0].Answers) != 8 || results[0].AgeGroup != domain.AgeGroupYoung {
		t.Fatalf("unexpected history: %+v", results)
	}

	l, err := board.GetLeaderboard(ctx, leaderboard.GetLeaderboardRequest{AgeGroup: domain.AgeGroupYoung})
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(l.Entries) != 1 || l.Entries[0].DisplayName != "Alice" || l.Entries[0].Score != completion.Result.Score {
		t.Fatalf("unexpected leaderboard: %+v", l.Entries)
	}
}

func findQuestion(t *testing.T, b *bank.Bank, id string) domain.Question {
	t.Helper()
	for _, qs := range b.All() {
		for _, q := range qs {
			if q.ID == id {
				return q
			}
		}
	}
	t.Fatalf("question %s not in bank", id)
	return domain.Question{}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateDB(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
