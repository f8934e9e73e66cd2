package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interview-practice/internal/analytics"
	"interview-practice/internal/runner"
	"interview-practice/internal/testdb"
)

func TestRunOnSeed(t *testing.T) {
	db, _ := testdb.Seeded(t)
	q, ok := analytics.Lookup("top_products_per_category")
	require.True(t, ok)

	res, err := runner.Run(context.Background(), db, q, runner.Options{Concurrency: 2, Duration: 300 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	assert.Positive(t, res.Operations)
	assert.Zero(t, res.Errors)
	assert.True(t, res.Idempotent)
	assert.Positive(t, res.P99Latency)
	assert.GreaterOrEqual(t, res.P99Latency, res.P95Latency)
	assert.Equal(t, 2, res.Concurrency)
}

func TestRunReportsTotalFailure(t *testing.T) {
	db, _ := testdb.Open(t)
	q := analytics.Query{Name: "broken", SQL: "SELECT * FROM no_such_table"}

	res, err := runner.Run(context.Background(), db, q, runner.Options{Concurrency: 1, Duration: 100 * time.Millisecond}, zap.NewNop())
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Zero(t, res.Operations)
	assert.Positive(t, res.Errors)
	assert.InDelta(t, 1.0, res.ErrorRate, 1e-9)
}
