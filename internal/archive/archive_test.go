package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-practice/internal/config"
)

func TestNewRecord(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 7200))
	rec := NewRecord(KindBench, "abc_classification", started)

	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, KindBench, rec.Kind)
	assert.Equal(t, time.UTC, rec.StartedAt.Location())
	assert.True(t, rec.StartedAt.Equal(started))
	assert.True(t, rec.Passed)
	assert.Equal(t, "{}", rec.Detail)

	assert.NotEqual(t, rec.ID, NewRecord(KindBench, "abc_classification", started).ID)

	rec, err = rec.WithDetail(map[string]any{"p99_ms": 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p99_ms": 4}`, rec.Detail)

	_, err = rec.WithDetail(make(chan int))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	a, err := Open(context.Background(), config.Archive{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, a)
	assert.NoError(t, a.Record(context.Background(), NewRecord(KindRun, "x", time.Now())))
	assert.NoError(t, a.Close(context.Background()))

	a, err = Open(context.Background(), config.Archive{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, a)

	_, err = Open(context.Background(), config.Archive{Backend: "redis"})
	assert.ErrorContains(t, err, `unknown archive backend "redis"`)
}

func TestMongoArchiver(t *testing.T) {
	uri := os.Getenv("PRACTICE_TEST_MONGO")
	if uri == "" {
		t.Skip("PRACTICE_TEST_MONGO not set")
	}
	ctx := context.Background()
	ma, err := NewMongoArchiver(ctx, uri, "interview_practice_test")
	require.NoError(t, err)
	defer ma.Close(ctx)

	rec := NewRecord(KindRun, "mongo-"+uuid.NewString(), time.Now())
	rec.Rows = 3
	require.NoError(t, ma.Record(ctx, rec))

	got, err := ma.Recent(ctx, rec.Subject, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, 3, got[0].Rows)
}

func TestMySQLArchiver(t *testing.T) {
	dsn := os.Getenv("PRACTICE_TEST_MYSQL")
	if dsn == "" {
		t.Skip("PRACTICE_TEST_MYSQL not set")
	}
	ctx := context.Background()
	ma, err := NewMySQLArchiver(ctx, dsn)
	require.NoError(t, err)
	defer ma.Close(ctx)

	rec := NewRecord(KindVerify, "mysql-"+uuid.NewString(), time.Now().Truncate(time.Microsecond))
	rec.Duration = 1500 * time.Millisecond
	rec.Passed = false
	require.NoError(t, ma.Record(ctx, rec))

	got, err := ma.Recent(ctx, rec.Subject, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.Duration, got[0].Duration)
	assert.False(t, got[0].Passed)
	assert.True(t, rec.StartedAt.Equal(got[0].StartedAt))
}
