//go:build integration

package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/upb/learnhub/repositories/postgres"
	"go.uber.org/zap"
)

// setupPostgres starts a throwaway PostgreSQL container, applies the embedded
// migrations and returns a repository factory over it. The container is
// terminated when the test finishes.
func setupPostgres(t *testing.T) *postgres.RepositoryFactory {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("learnhub_test"),
		tcpostgres.WithUsername("learnhub"),
		tcpostgres.WithPassword("learnhub_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, sqlDB.PingContext(ctx))

	logger := zap.NewNop()
	db := postgres.Wrap(sqlDB, logger)
	require.NoError(t, db.Migrate(ctx), "failed to run migrations")

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Logf("closing database: %v", err)
		}

		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	return postgres.NewRepositoryFactoryFromDB(db, logger)
}
