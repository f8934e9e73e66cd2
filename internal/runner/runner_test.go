package runner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-practice/internal/analytics"
)

func TestSummarizeMergesWorkers(t *testing.T) {
	res := &analytics.Result{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}

	w1 := newWorker()
	w1.record(1*time.Millisecond, res, nil)
	w1.record(2*time.Millisecond, res, nil)
	w1.record(3*time.Millisecond, res, nil)

	w2 := newWorker()
	w2.record(10*time.Millisecond, res, nil)
	w2.record(time.Millisecond, nil, errors.New("boom"))

	got := summarize([]*worker{w1, w2}, 2*time.Second)
	assert.Equal(t, int64(4), got.Operations)
	assert.Equal(t, int64(1), got.Errors)
	assert.InDelta(t, 0.2, got.ErrorRate, 1e-9)
	assert.InDelta(t, 2.0, got.Throughput, 1e-9)
	assert.InDelta(t, float64(4*time.Millisecond), float64(got.AverageLatency), float64(20*time.Microsecond))
	assert.InDelta(t, float64(10*time.Millisecond), float64(got.P99Latency), float64(20*time.Microsecond))
	assert.InDelta(t, float64(10*time.Millisecond), float64(got.P95Latency), float64(20*time.Microsecond))
	assert.True(t, got.Idempotent)
	assert.Equal(t, res.Fingerprint(), got.Fingerprint)
	assert.Equal(t, 1, got.Rows)

	assert.Equal(t, "boom", firstError([]*worker{w1, w2}).Error())
	assert.NoError(t, firstError([]*worker{w1}))
}

func TestSummarizeDetectsDivergentResults(t *testing.T) {
	w := newWorker()
	w.record(time.Millisecond, &analytics.Result{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}, nil)
	w.record(time.Millisecond, &analytics.Result{Columns: []string{"n"}, Rows: [][]any{{int64(2)}}}, nil)

	got := summarize([]*worker{w}, time.Second)
	assert.False(t, got.Idempotent)
	assert.Empty(t, got.Fingerprint)
}

func TestSummarizeEmpty(t *testing.T) {
	got := summarize([]*worker{newWorker()}, 0)
	assert.Zero(t, got.Operations)
	assert.Zero(t, got.Throughput)
	assert.Zero(t, got.ErrorRate)
	assert.Zero(t, got.P99Latency)
	assert.False(t, got.Idempotent)
}

func TestRecordClampsLatency(t *testing.T) {
	w := newWorker()
	res := &analytics.Result{}
	w.record(0, res, nil)
	w.record(2*time.Minute, res, nil)
	assert.Equal(t, int64(2), w.hist.TotalCount())
	assert.Equal(t, int64(minLatency), w.hist.Min())
	assert.InDelta(t, float64(maxLatency), float64(w.hist.Max()), float64(maxLatency)/500)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, Options{Concurrency: 1, Duration: time.Second}.validate())
	assert.ErrorContains(t, Options{Concurrency: 0, Duration: time.Second}.validate(), "concurrency")
	assert.ErrorContains(t, Options{Concurrency: 2}.validate(), "duration")
}
