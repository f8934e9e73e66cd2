package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Row interface {
	Scan(dest ...any) error
}

// DatabaseDriver is the surface every component talks to. Calls made with a
// context returned inside ExecuteTx run on that transaction.
type DatabaseDriver interface {
	Connect(ctx context.Context, dsn string) error
	Close() error
	Ping(ctx context.Context) error
	Reset(ctx context.Context) error
	ExecuteTx(ctx context.Context, txFunc func(ctx context.Context) error) error
	ExecContext(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryContext(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// InTx reports whether ctx carries a transaction opened by ExecuteTx.
func InTx(ctx context.Context) bool {
	_, ok := txFrom(ctx)
	return ok
}
