package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDriver struct {
	MaxConns int32

	pool *pgxpool.Pool
}

func NewPostgresDriver(maxConns int32) *PostgresDriver {
	return &PostgresDriver{MaxConns: maxConns}
}

func (pd *PostgresDriver) Connect(ctx context.Context, dsn string) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	if pd.MaxConns > 0 {
		cfg.MaxConns = pd.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	pd.pool = pool
	return nil
}

func (pd *PostgresDriver) Close() error {
	if pd.pool != nil {
		pd.pool.Close()
	}
	return nil
}

func (pd *PostgresDriver) Ping(ctx context.Context) error {
	if pd.pool == nil {
		return errors.New("postgres: not connected")
	}
	return pd.pool.Ping(ctx)
}

// Reset drops every view, table and user-defined function in the public
// schema, leaving it as a fresh database would be.
func (pd *PostgresDriver) Reset(ctx context.Context) error {
	views, err := pd.names(ctx, "SELECT viewname FROM pg_views WHERE schemaname = 'public'")
	if err != nil {
		return err
	}
	for _, v := range views {
		if _, err := pd.pool.Exec(ctx, "DROP VIEW IF EXISTS "+pgx.Identifier{v}.Sanitize()+" CASCADE"); err != nil {
			return fmt.Errorf("drop view %s: %w", v, err)
		}
	}

	tables, err := pd.names(ctx, "SELECT tablename FROM pg_tables WHERE schemaname = 'public'")
	if err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := pd.pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{t}.Sanitize()+" CASCADE"); err != nil {
			return fmt.Errorf("drop table %s: %w", t, err)
		}
	}

	// Functions owned by extensions are left alone.
	funcs, err := pd.names(ctx, `
		SELECT p.oid::regprocedure::text
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = 'public'
		  AND NOT EXISTS (SELECT 1 FROM pg_depend d WHERE d.objid = p.oid AND d.deptype = 'e')`)
	if err != nil {
		return err
	}
	for _, f := range funcs {
		if _, err := pd.pool.Exec(ctx, "DROP FUNCTION IF EXISTS "+f+" CASCADE"); err != nil {
			return fmt.Errorf("drop function %s: %w", f, err)
		}
	}
	return nil
}

func (pd *PostgresDriver) names(ctx context.Context, query string) ([]string, error) {
	rows, err := pd.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ExecuteTx commits when txFunc returns nil and rolls back otherwise. A call
// made while already inside a transaction joins it.
func (pd *PostgresDriver) ExecuteTx(ctx context.Context, txFunc func(ctx context.Context) error) (err error) {
	if _, ok := txFrom(ctx); ok {
		return txFunc(ctx)
	}

	tx, err := pd.pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = txFunc(withTx(ctx, tx))
	return err
}

func (pd *PostgresDriver) ExecContext(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if tx, ok := txFrom(ctx); ok {
		return tx.Exec(ctx, query, args...)
	}
	return pd.pool.Exec(ctx, query, args...)
}

func (pd *PostgresDriver) QueryContext(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if tx, ok := txFrom(ctx); ok {
		return tx.Query(ctx, query, args...)
	}
	return pd.pool.Query(ctx, query, args...)
}

func (pd *PostgresDriver) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	if tx, ok := txFrom(ctx); ok {
		return tx.QueryRow(ctx, query, args...)
	}
	return pd.pool.QueryRow(ctx, query, args...)
}

func (pd *PostgresDriver) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	if tx, ok := txFrom(ctx); ok {
		return tx.SendBatch(ctx, b)
	}
	return pd.pool.SendBatch(ctx, b)
}
