// Package testdb hands integration tests a freshly migrated PostgreSQL
// database. Tests are skipped unless PRACTICE_TEST_DSN is set.
package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interview-practice/internal/database"
	"interview-practice/internal/schema"
	"interview-practice/internal/seed"
	"interview-practice/internal/shop"
)

const EnvDSN = "PRACTICE_TEST_DSN"

// lockKey serializes packages that share the test database, since go test
// runs them as separate processes.
const lockKey int64 = 0x70726163

// Open resets the database behind PRACTICE_TEST_DSN and applies every
// migration. The returned driver is closed when the test ends.
func Open(t testing.TB) (*database.PostgresDriver, string) {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}
	ctx := context.Background()

	lock, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = lock.Exec(ctx, "SELECT pg_advisory_lock($1)", lockKey)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = lock.Exec(ctx, "SELECT pg_advisory_unlock($1)", lockKey)
		_ = lock.Close(ctx)
	})

	db := database.NewPostgresDriver(4)
	require.NoError(t, db.Connect(ctx, dsn))
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Reset(ctx))
	require.NoError(t, schema.Up(ctx, dsn, zap.NewNop()))
	return db, dsn
}

// Seeded is Open followed by a load of the sample dataset.
func Seeded(t testing.TB) (*database.PostgresDriver, *shop.Dataset) {
	t.Helper()
	db, _ := Open(t)
	ds := seed.Dataset()
	require.NoError(t, seed.Load(context.Background(), db, ds, zap.NewNop()))
	return db, ds
}
