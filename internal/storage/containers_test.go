package storage

import (
	"chessrelay/backend/internal/models"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testEnvironment is a Service backed by throwaway postgres and redis containers.
type testEnvironment struct {
	Service *Service

	pg    tc.Container
	cache tc.Container
}

func setupTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed storage tests in short mode")
	}

	ctx := context.Background()
	env := &testEnvironment{}
	t.Cleanup(func() { env.cleanup() })

	pg, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("chess"),
		tcpostgres.WithUsername("relay"),
		tcpostgres.WithPassword("relay"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	env.pg = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	cache, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	env.cache = cache

	endpoint, err := cache.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	rdb, err := NewRedis(ctx, endpoint, 0)
	if err != nil {
		t.Fatalf("failed to open redis: %v", err)
	}

	env.Service = NewStorageService(db, rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := env.Service.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return env
}

// reset empties the profiles table and the redis database between subtests.
func (env *testEnvironment) reset(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	if err := env.Service.DB.WithContext(ctx).Exec("TRUNCATE TABLE profiles").Error; err != nil {
		t.Fatalf("failed to truncate profiles: %v", err)
	}
	if err := env.Service.Redis.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

func (env *testEnvironment) createProfile(t *testing.T, p models.Profile) {
	t.Helper()
	if err := env.Service.DB.Create(&p).Error; err != nil {
		t.Fatalf("failed to create profile %s: %v", p.ID, err)
	}
}

func (env *testEnvironment) cleanup() {
	ctx := context.Background()

	if env.Service != nil {
		if sqlDB, err := env.Service.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = env.Service.Redis.Close()
	}
	if env.cache != nil {
		_ = env.cache.Terminate(ctx)
	}
	if env.pg != nil {
		_ = env.pg.Terminate(ctx)
	}
}
