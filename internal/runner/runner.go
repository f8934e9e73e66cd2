// Package runner benchmarks a catalogue query: concurrent workers repeat it
// until a deadline and latency is collected in HDR histograms.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/zap"

	"interview-practice/internal/analytics"
	"interview-practice/internal/database"
)

// Latencies are recorded in microseconds, from 1µs up to one minute.
const (
	minLatency = 1
	maxLatency = int64(time.Minute / time.Microsecond)
	sigFigures = 3
)

type Options struct {
	Concurrency int
	Duration    time.Duration
}

func (o Options) validate() error {
	if o.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", o.Concurrency)
	}
	if o.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", o.Duration)
	}
	return nil
}

// Result summarizes one benchmark. Idempotent is true when every successful
// execution returned the same rows.
type Result struct {
	Query          string        `json:"query"`
	Concurrency    int           `json:"concurrency"`
	Operations     int64         `json:"operations"`
	Errors         int64         `json:"errors"`
	Throughput     float64       `json:"throughput"`
	AverageLatency time.Duration `json:"average_latency"`
	P95Latency     time.Duration `json:"p95_latency"`
	P99Latency     time.Duration `json:"p99_latency"`
	ErrorRate      float64       `json:"error_rate"`
	TotalTime      time.Duration `json:"total_time"`
	Idempotent     bool          `json:"idempotent"`
	Fingerprint    string        `json:"fingerprint,omitempty"`
	Rows           int           `json:"rows"`
}

type worker struct {
	hist         *hdrhistogram.Histogram
	ops          int64
	errs         int64
	fingerprints map[string]int
	rows         int
	lastErr      error
}

func newWorker() *worker {
	return &worker{
		hist:         hdrhistogram.New(minLatency, maxLatency, sigFigures),
		fingerprints: map[string]int{},
	}
}

func (w *worker) record(latency time.Duration, res *analytics.Result, err error) {
	if err != nil {
		w.errs++
		w.lastErr = err
		return
	}
	w.ops++
	us := latency.Microseconds()
	if us < minLatency {
		us = minLatency
	}
	if us > maxLatency {
		us = maxLatency
	}
	_ = w.hist.RecordValue(us)
	w.fingerprints[res.Fingerprint()]++
	w.rows = len(res.Rows)
}

// Run repeats q on opts.Concurrency workers until opts.Duration elapses or
// ctx is cancelled.
func Run(ctx context.Context, db database.DatabaseDriver, q analytics.Query, opts Options, logger *zap.Logger) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	logger.Info("benchmark started", zap.String("query", q.Name), zap.Int("concurrency", opts.Concurrency),
		zap.Duration("duration", opts.Duration))

	workers := make([]*worker, opts.Concurrency)
	var wg sync.WaitGroup
	startTime := time.Now()
	for i := range workers {
		w := newWorker()
		workers[i] = w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for runCtx.Err() == nil {
				start := time.Now()
				res, err := analytics.Run(runCtx, db, q)
				if err != nil && runCtx.Err() != nil {
					// Cut off by the deadline, not a failure.
					return
				}
				w.record(time.Since(start), res, err)
			}
		}()
	}
	wg.Wait()
	totalTime := time.Since(startTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := summarize(workers, totalTime)
	result.Query = q.Name
	result.Concurrency = opts.Concurrency

	if err := firstError(workers); err != nil {
		if result.Operations == 0 {
			return result, fmt.Errorf("every execution of %s failed: %w", q.Name, err)
		}
		logger.Warn("benchmark query failed", zap.String("query", q.Name), zap.Int64("errors", result.Errors), zap.Error(err))
	}
	logger.Info("benchmark finished", zap.String("query", q.Name), zap.Int64("operations", result.Operations),
		zap.Float64("throughput", result.Throughput), zap.Duration("p99", result.P99Latency))
	return result, nil
}

func firstError(workers []*worker) error {
	for _, w := range workers {
		if w.lastErr != nil {
			return w.lastErr
		}
	}
	return nil
}

// summarize merges the per-worker histograms into one result.
func summarize(workers []*worker, totalTime time.Duration) *Result {
	merged := hdrhistogram.New(minLatency, maxLatency, sigFigures)
	fingerprints := map[string]int{}
	result := &Result{TotalTime: totalTime}
	for _, w := range workers {
		merged.Merge(w.hist)
		result.Operations += w.ops
		result.Errors += w.errs
		for fp, n := range w.fingerprints {
			fingerprints[fp] += n
		}
		if w.ops > 0 {
			result.Rows = w.rows
		}
	}

	if merged.TotalCount() > 0 {
		result.AverageLatency = time.Duration(merged.Mean() * float64(time.Microsecond))
		result.P95Latency = time.Duration(merged.ValueAtQuantile(95)) * time.Microsecond
		result.P99Latency = time.Duration(merged.ValueAtQuantile(99)) * time.Microsecond
	}
	if totalTime > 0 {
		result.Throughput = float64(result.Operations) / totalTime.Seconds()
	}
	if attempts := result.Operations + result.Errors; attempts > 0 {
		result.ErrorRate = float64(result.Errors) / float64(attempts)
	}

	result.Idempotent = len(fingerprints) == 1
	if result.Idempotent {
		for fp := range fingerprints {
			result.Fingerprint = fp
		}
	}
	return result
}
