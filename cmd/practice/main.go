// Command practice manages the interview-practice database: migrations,
// seed data, the analytics catalogue, verification, benchmarks and the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interview-practice/internal/archive"
	"interview-practice/internal/config"
	"interview-practice/internal/database"
	"interview-practice/internal/logging"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer
}

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout}
	root := a.rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		exitCode = 1
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "practice",
		Short:         "PostgreSQL interview practice toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(
		a.migrateCommand(),
		a.resetCommand(),
		a.seedCommand(),
		a.dumpSeedCommand(),
		a.queriesCommand(),
		a.runCommand(),
		a.verifyCommand(),
		a.qualityCommand(),
		a.benchCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *app) connect(ctx context.Context) (*database.PostgresDriver, error) {
	db := database.NewPostgresDriver(a.cfg.Database.MaxConns)
	if err := db.Connect(ctx, a.cfg.Database.Postgres); err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// archiver opens the configured backend when enabled, a no-op otherwise.
func (a *app) archiver(ctx context.Context, enabled bool) (archive.Archiver, error) {
	if !enabled {
		return archive.Nop{}, nil
	}
	arc, err := archive.Open(ctx, a.cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", a.cfg.Archive.Backend, err)
	}
	return arc, nil
}

// record archives rec and logs rather than fails when the backend refuses it.
func (a *app) record(ctx context.Context, arc archive.Archiver, rec archive.RunRecord, detail any) {
	rec, err := rec.WithDetail(detail)
	if err == nil {
		err = arc.Record(ctx, rec)
	}
	if err != nil {
		a.logger.Warn("failed to archive run", zap.String("subject", rec.Subject), zap.Error(err))
	}
}

func (a *app) printJSON(v any) error {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(jsonOutput))
	return err
}
