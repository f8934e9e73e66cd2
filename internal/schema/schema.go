// Package schema owns the practice database DDL: five tables, the
// stock-adjustment trigger and two summary views, shipped as embedded
// golang-migrate migrations.
package schema

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Tables in foreign-key order: every table only references tables before it.
var Tables = []string{"customers", "categories", "products", "orders", "order_items"}

var Views = []string{"customer_order_summary", "product_sales_summary"}

const Trigger = "trigger_update_stock"

func Up(ctx context.Context, dsn string, logger *zap.Logger) error {
	return run(ctx, dsn, logger, func(m *migrate.Migrate) error { return m.Up() })
}

func Down(ctx context.Context, dsn string, logger *zap.Logger) error {
	return run(ctx, dsn, logger, func(m *migrate.Migrate) error { return m.Down() })
}

// Version returns the applied migration version. A database with no
// migrations applied reports version 0.
func Version(ctx context.Context, dsn string, logger *zap.Logger) (version uint, dirty bool, err error) {
	err = run(ctx, dsn, logger, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}

func run(ctx context.Context, dsn string, logger *zap.Logger, step func(*migrate.Migrate) error) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrateURL(dsn))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{logger: logger}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("closing migrate", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	err = step(m)
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already up to date")
		return nil
	}
	return err
}

// MigrateURL rewrites a postgres:// DSN for golang-migrate's pgx/v5 driver.
func MigrateURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}

// DDL concatenates the up migrations in order, suitable for psql -f.
func DDL() (string, error) {
	names, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return "", err
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "-- %s\n", strings.TrimPrefix(name, "migrations/"))
		b.Write(body)
		if !strings.HasSuffix(string(body), "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type migrateLogger struct {
	logger *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }
