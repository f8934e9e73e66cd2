package runner_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"interview-practice/internal/analytics"
	"interview-practice/internal/runner"
	"interview-practice/internal/testdb"
)

func BenchmarkCatalogue(b *testing.B) {
	db, _ := testdb.Seeded(b)

	for _, q := range analytics.Catalogue() {
		b.Run(q.Name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := analytics.Run(context.Background(), db, q); err != nil {
					b.Fatalf("%s failed: %v", q.Name, err)
				}
			}
		})
	}
}

func BenchmarkRunner(b *testing.B) {
	db, _ := testdb.Seeded(b)
	q, _ := analytics.Lookup("customer_lifetime_value")

	for i := 0; i < b.N; i++ {
		result, err := runner.Run(context.Background(), db, q, runner.Options{Concurrency: 4, Duration: time.Second}, zap.NewNop())
		if err != nil {
			b.Fatalf("Benchmark failed: %v", err)
		}
		b.Logf("Result: %+v", result)
	}
}
