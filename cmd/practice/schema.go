package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interview-practice/internal/schema"
	"interview-practice/internal/seed"
)

func (a *app) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply or roll back the schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "migrate all the way up",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return schema.Up(cmd.Context(), a.cfg.Database.Postgres, a.logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return schema.Down(cmd.Context(), a.cfg.Database.Postgres, a.logger)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				v, dirty, err := schema.Version(cmd.Context(), a.cfg.Database.Postgres, a.logger)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "version %d (dirty: %t)\n", v, dirty)
				return err
			},
		},
	)
	return cmd
}

func (a *app) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "drop every table, view and function in the public schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset database: %w", err)
			}
			a.logger.Info("database reset")
			return nil
		},
	}
}

func (a *app) seedCommand() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "migrate and load the sample data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if reset {
				if err := db.Reset(ctx); err != nil {
					return fmt.Errorf("reset database: %w", err)
				}
			}
			if err := schema.Up(ctx, a.cfg.Database.Postgres, a.logger); err != nil {
				return err
			}
			ds := seed.Dataset()
			if err := seed.Load(ctx, db, ds, a.logger); err != nil {
				return err
			}
			a.logger.Info("seed loaded", zap.Int("orders", len(ds.Orders)), zap.Int("products", len(ds.Products)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop existing objects first")
	return cmd
}

func (a *app) dumpSeedCommand() *cobra.Command {
	var withSchema bool
	cmd := &cobra.Command{
		Use:   "dump-seed",
		Short: "print the sample data as SQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if withSchema {
				ddl, err := schema.DDL()
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(a.out, ddl); err != nil {
					return err
				}
			}
			dml, err := seed.SQL(seed.Dataset())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.out, dml)
			return err
		},
	}
	cmd.Flags().BoolVar(&withSchema, "schema", false, "include the DDL before the data")
	return cmd
}
