package archive

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var createRunsTableQuery = `CREATE TABLE IF NOT EXISTS query_runs (
	id          CHAR(36)     NOT NULL PRIMARY KEY,
	kind        VARCHAR(16)  NOT NULL,
	subject     VARCHAR(128) NOT NULL,
	started_at  DATETIME(6)  NOT NULL,
	duration_ns BIGINT       NOT NULL,
	` + "`rows`" + `      INT          NOT NULL,
	fingerprint CHAR(64)     NOT NULL,
	passed      BOOLEAN      NOT NULL,
	detail      JSON         NOT NULL,
	INDEX idx_query_runs_subject (subject, started_at)
)`

var insertRunQuery = "INSERT INTO query_runs (id, kind, subject, started_at, duration_ns, `rows`, fingerprint, passed, detail) " +
	"VALUES (:id, :kind, :subject, :started_at, :duration_ns, :rows, :fingerprint, :passed, :detail)"

var recentRunsQuery = "SELECT id, kind, subject, started_at, duration_ns, `rows`, fingerprint, passed, detail " +
	"FROM query_runs WHERE subject = ? ORDER BY started_at DESC LIMIT ?"

type MySQLArchiver struct {
	db *sqlx.DB
}

// NewMySQLArchiver connects with dsn, which must set parseTime=true, and
// creates the query_runs table if it is missing.
func NewMySQLArchiver(ctx context.Context, dsn string) (*MySQLArchiver, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	if _, err := db.ExecContext(ctx, createRunsTableQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create query_runs: %w", err)
	}
	return &MySQLArchiver{db: db}, nil
}

func (ma *MySQLArchiver) Record(ctx context.Context, rec RunRecord) error {
	if _, err := ma.db.NamedExecContext(ctx, insertRunQuery, rec); err != nil {
		return fmt.Errorf("archive run %s: %w", rec.ID, err)
	}
	return nil
}

func (ma *MySQLArchiver) Recent(ctx context.Context, subject string, limit int) ([]RunRecord, error) {
	var out []RunRecord
	err := ma.db.SelectContext(ctx, &out, recentRunsQuery, subject, limit)
	return out, err
}

func (ma *MySQLArchiver) Close(context.Context) error {
	return ma.db.Close()
}
