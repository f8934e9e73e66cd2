// Package archive records the history of query runs, benchmarks and
// verification passes in an external store.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"interview-practice/internal/config"
)

type Kind string

const (
	KindRun    Kind = "run"
	KindBench  Kind = "bench"
	KindVerify Kind = "verify"
)

// RunRecord is one archived execution. Detail is a JSON document describing
// the outcome, such as benchmark latencies or failed checks.
type RunRecord struct {
	ID          string        `json:"id" bson:"_id" db:"id"`
	Kind        Kind          `json:"kind" bson:"kind" db:"kind"`
	Subject     string        `json:"subject" bson:"subject" db:"subject"`
	StartedAt   time.Time     `json:"started_at" bson:"started_at" db:"started_at"`
	Duration    time.Duration `json:"duration" bson:"duration_ns" db:"duration_ns"`
	Rows        int           `json:"rows" bson:"rows" db:"rows"`
	Fingerprint string        `json:"fingerprint" bson:"fingerprint" db:"fingerprint"`
	Passed      bool          `json:"passed" bson:"passed" db:"passed"`
	Detail      string        `json:"detail" bson:"detail" db:"detail"`
}

func NewRecord(kind Kind, subject string, startedAt time.Time) RunRecord {
	return RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Subject:   subject,
		StartedAt: startedAt.UTC(),
		Passed:    true,
		Detail:    "{}",
	}
}

// WithDetail stores v as the record's JSON detail.
func (r RunRecord) WithDetail(v any) (RunRecord, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return r, fmt.Errorf("encode run detail: %w", err)
	}
	r.Detail = string(raw)
	return r, nil
}

type Archiver interface {
	Record(ctx context.Context, rec RunRecord) error
	Close(ctx context.Context) error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(context.Context, RunRecord) error { return nil }
func (Nop) Close(context.Context) error             { return nil }

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.Archive) (Archiver, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "mongo":
		return NewMongoArchiver(ctx, cfg.Mongo, cfg.MongoDatabase)
	case "mysql":
		return NewMySQLArchiver(ctx, cfg.MySQL)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
