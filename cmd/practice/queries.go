package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interview-practice/internal/analytics"
	"interview-practice/internal/archive"
	"interview-practice/internal/runner"
	"interview-practice/internal/seed"
	"interview-practice/internal/verify"
)

func (a *app) queriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "list the analytics catalogue",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTECHNIQUE\tTITLE")
			for _, q := range analytics.Catalogue() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", q.Name, q.Technique, q.Title)
			}
			return w.Flush()
		},
	}
}

type queryOutput struct {
	Query       string           `json:"query"`
	Rows        []map[string]any `json:"rows"`
	RowCount    int              `json:"row_count"`
	Fingerprint string           `json:"fingerprint"`
	Duration    time.Duration    `json:"duration"`
}

func (a *app) runCommand() *cobra.Command {
	var all, archived bool
	cmd := &cobra.Command{
		Use:   "run [name]",
		Short: "execute catalogue queries and print their rows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var queries []analytics.Query
			switch {
			case all && len(args) == 0:
				queries = analytics.Catalogue()
			case !all && len(args) == 1:
				q, ok := analytics.Lookup(args[0])
				if !ok {
					return fmt.Errorf("unknown query %q, see `practice queries`", args[0])
				}
				queries = []analytics.Query{q}
			default:
				return errors.New("give exactly one query name or --all")
			}

			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			arc, err := a.archiver(ctx, archived)
			if err != nil {
				return err
			}
			defer arc.Close(ctx)

			outputs := make([]queryOutput, 0, len(queries))
			for _, q := range queries {
				start := time.Now()
				res, err := analytics.Run(ctx, db, q)
				if err != nil {
					return err
				}
				out := queryOutput{
					Query:       q.Name,
					Rows:        res.Records(),
					RowCount:    len(res.Rows),
					Fingerprint: res.Fingerprint(),
					Duration:    time.Since(start),
				}
				outputs = append(outputs, out)

				rec := archive.NewRecord(archive.KindRun, q.Name, start)
				rec.Duration, rec.Rows, rec.Fingerprint = out.Duration, out.RowCount, out.Fingerprint
				a.record(ctx, arc, rec, map[string]any{"columns": res.Columns})
			}
			if len(outputs) == 1 {
				return a.printJSON(outputs[0])
			}
			return a.printJSON(outputs)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run every catalogue query")
	cmd.Flags().BoolVar(&archived, "archive", false, "record the runs in the configured archive")
	return cmd
}

func (a *app) verifyCommand() *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "check the database against the seed data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			arc, err := a.archiver(ctx, archived)
			if err != nil {
				return err
			}
			defer arc.Close(ctx)

			start := time.Now()
			checks, err := verify.Run(ctx, db, seed.Dataset(), a.logger)
			if err != nil {
				return err
			}
			rec := archive.NewRecord(archive.KindVerify, "seed", start)
			rec.Duration, rec.Passed = time.Since(start), verify.Passed(checks)
			a.record(ctx, arc, rec, checks)

			if err := a.printJSON(checks); err != nil {
				return err
			}
			if !rec.Passed {
				return errors.New("verification failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archived, "archive", false, "record the result in the configured archive")
	return cmd
}

func (a *app) qualityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quality",
		Short: "report missing data, duplicates, outliers and broken references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			report, err := verify.Quality(cmd.Context(), db)
			if err != nil {
				return err
			}
			if !report.Clean() {
				a.logger.Warn("data quality issues found")
			}
			return a.printJSON(report)
		},
	}
}

func (a *app) benchCommand() *cobra.Command {
	var (
		concurrency int
		duration    time.Duration
		archived    bool
	)
	cmd := &cobra.Command{
		Use:   "bench <name>",
		Short: "benchmark one catalogue query under concurrent load",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, ok := analytics.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown query %q, see `practice queries`", args[0])
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = a.cfg.BenchmarkSettings.DefaultConcurrency
			}
			if !cmd.Flags().Changed("duration") {
				d, err := a.cfg.BenchmarkSettings.Duration()
				if err != nil {
					return err
				}
				duration = d
			}

			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			arc, err := a.archiver(ctx, archived)
			if err != nil {
				return err
			}
			defer arc.Close(ctx)

			fmt.Fprintf(cmd.ErrOrStderr(), "Running benchmark for %s with %d workers for %s...\n", q.Name, concurrency, duration)
			start := time.Now()
			result, err := runner.Run(ctx, db, q, runner.Options{Concurrency: concurrency, Duration: duration}, a.logger)
			if err != nil {
				return fmt.Errorf("benchmark failed: %w", err)
			}
			if !result.Idempotent {
				a.logger.Warn("query returned different rows across executions", zap.String("query", q.Name))
			}

			rec := archive.NewRecord(archive.KindBench, q.Name, start)
			rec.Duration, rec.Rows, rec.Fingerprint, rec.Passed = result.TotalTime, result.Rows, result.Fingerprint, result.Idempotent
			a.record(ctx, arc, rec, result)
			return a.printJSON(result)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent workers")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")
	cmd.Flags().BoolVar(&archived, "archive", false, "record the result in the configured archive")
	return cmd
}
