package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"hunt-event-service/internal/app"
	"hunt-event-service/internal/config"
	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/infra/postgres"
	infraredis "hunt-event-service/internal/infra/redis"
	"hunt-event-service/internal/infra/sqlstore"
	"hunt-event-service/internal/infra/sqlstore/migrations"
	"hunt-event-service/internal/logging"
)

func TestChallengeLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := sqlstore.Open(config.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open pg: %v", err)
	}
	defer db.Close()
	if _, err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlstore.NewStore(db)

	seedCatalog(t, ctx, pgURL, sampleQuestions())

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()
	rooms := infraredis.NewRoomDirectory(redisClient, 5*time.Minute)

	log := logging.Discard()
	board := app.NewClearBoard(store, 10)
	registrar := app.NewChallengeRegistrar(store, rooms, log)
	selector := app.NewQuestionSelector(store, 20, log)
	answers := app.NewAnswerRegistrar(store, "lv5_q1", log)
	finisher := app.NewChallengeFinisher(store, rooms, board, log)

	playerCount, difficulty := 4, 2
	challenge, err := registrar.Register(ctx, app.RegisterChallengeCommand{
		GroupName:   "Owls",
		PlayerCount: &playerCount,
		Difficulty:  &difficulty,
	})
	if err != nil {
		t.Fatalf("register challenge: %v", err)
	}
	if id, err := rooms.ActiveChallenge(ctx, domain.DefaultRoomID); err != nil || id != challenge.ChallengeID {
		t.Fatalf("expected room marker for %s, got %q err=%v", challenge.ChallengeID, id, err)
	}

	seen := map[string]bool{}
	for i := 0; i < 7; i++ {
		q, err := selector.Select(ctx, challenge.GroupID, difficulty)
		if err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if seen[q.ID] {
			t.Fatalf("question %s handed out twice", q.ID)
		}
		seen[q.ID] = true
		if _, err := answers.Register(ctx, app.RegisterAnswerCommand{
			GroupID:    challenge.GroupID,
			QuestionID: q.ID,
			Result:     domain.ResultCorrect,
		}); err != nil {
			t.Fatalf("register answer: %v", err)
		}
	}
	if _, err := selector.Select(ctx, challenge.GroupID, difficulty); !errors.Is(err, domain.ErrNoAvailableQuestions) {
		t.Fatalf("expected exhausted level, got %v", err)
	}

	if _, err := finisher.Finish(ctx, app.FinishCommand{RoomCode: domain.DefaultRoomID, Result: domain.StateCleared}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	group, err := store.GroupByName(ctx, "Owls")
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if group.WasCleared != domain.FlagCleared || group.SnackState != "4" {
		t.Fatalf("unexpected rewards: %+v", group)
	}
	lb, err := board.Board(ctx, difficulty)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].GroupName != "Owls" {
		t.Fatalf("expected Owls on the board, got %+v", lb.Entries)
	}

	if _, err := registrar.Register(ctx, app.RegisterChallengeCommand{
		GroupName:   "Owls",
		PlayerCount: &playerCount,
		Difficulty:  &difficulty,
		DupCheck:    true,
	}); !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions after answering the level, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "hunt", "POSTGRES_PASSWORD": "huntpass", "POSTGRES_DB": "huntdb"},
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
	dsn := fmt.Sprintf("postgres://hunt:huntpass@%s:%s/huntdb?sslmode=disable", host, port.Port())
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

func seedCatalog(t *testing.T, ctx context.Context, dsn string, questions []domain.Question) {
	t.Helper()
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	importer := postgres.NewCatalogImporter(pool)
	for round := 0; round < 2; round++ {
		n, err := importer.UpsertQuestions(ctx, questions)
		if err != nil {
			t.Fatalf("import round %d: %v", round, err)
		}
		if n != len(questions) {
			t.Fatalf("expected %d questions imported, got %d", len(questions), n)
		}
	}
}

func sampleQuestions() []domain.Question {
	var out []domain.Question
	for i := 1; i <= 7; i++ {
		out = append(out, domain.Question{
			ID:         fmt.Sprintf("lv2_q%d", i),
			Difficulty: 2,
			Question:   fmt.Sprintf("Riddle %d", i),
			Answer:     fmt.Sprintf("Answer %d", i),
		})
	}
	return append(out, domain.Question{ID: "lv5_q1", Difficulty: 5, Question: "Final riddle", Answer: "Echo"})
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
