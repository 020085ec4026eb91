package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for database/sql
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facilityfinder/internal/config"
	logpkg "github.com/kailas-cloud/facilityfinder/internal/logger"
	"github.com/kailas-cloud/facilityfinder/internal/seed"
)

type rootOptions struct {
	env     string
	table   string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "facilityloader",
		Short:         "Prepare and populate the facility search database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (local, prod)")
	cmd.PersistentFlags().StringVar(&opts.table, "table", "", "facility table (default: database.table from config)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "overall operation timeout")

	cmd.AddCommand(newSchemaCmd(opts), newImportCmd(opts))
	return cmd
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create extensions, the facility table and its indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, db *sqlx.DB, table string, logger *zap.Logger) error {
				if err := seed.ApplySchema(ctx, db, table); err != nil {
					return err
				}
				logger.Info("Schema ready", zap.String("table", table))
				return nil
			})
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		batchSize   int
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import facilities from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			facilities, err := seed.Parse(path, data)
			if err != nil {
				return err
			}

			return withDB(cmd.Context(), opts, func(ctx context.Context, db *sqlx.DB, table string, logger *zap.Logger) error {
				loader, err := seed.NewLoader(db, table, logger)
				if err != nil {
					return err
				}
				start := time.Now()
				n, err := loader.WithBatchSize(batchSize).WithConcurrency(concurrency).Import(ctx, facilities)
				logger.Info("Import finished",
					zap.String("file", path),
					zap.Int("parsed", len(facilities)),
					zap.Int64("written", n),
					zap.Duration("took", time.Since(start)),
					zap.Error(err),
				)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", seed.DefaultBatchSize, "rows per INSERT")
	cmd.Flags().IntVar(&concurrency, "concurrency", seed.DefaultConcurrency, "parallel INSERT statements")
	return cmd
}

// withDB loads config, opens a logger and a database handle, and runs fn.
func withDB(
	ctx context.Context,
	opts *rootOptions,
	fn func(ctx context.Context, db *sqlx.DB, table string, logger *zap.Logger) error,
) error {
	cfg, err := config.Load(opts.env)
	if err != nil {
		return err
	}
	logger, err := logpkg.New(logpkg.Options{Env: opts.env, Level: cfg.Logging.Level, Component: "loader"})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	table := opts.table
	if table == "" {
		table = cfg.Database.Table
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(cfg.Database.MaxConns)

	return fn(ctx, db, table, logger)
}
