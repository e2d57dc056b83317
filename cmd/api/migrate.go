package main

import (
	"context"
	"fmt"
	"io"

	"voice-dispatch/internal/config"
	"voice-dispatch/internal/schema"
	"voice-dispatch/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres tables",
		Long: `Applies the agent_configurations, calls, call_transcripts and call_results
tables in one transaction. Every statement uses IF NOT EXISTS, so running it
again is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return printSchema(cmd.OutOrStdout())
			}
			return runMigrate(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statements instead of applying them")
	return cmd
}

func printSchema(out io.Writer) error {
	for _, stmt := range schema.Statements() {
		if _, err := fmt.Fprintf(out, "%s;\n\n", stmt); err != nil {
			return err
		}
	}
	return nil
}

func runMigrate(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return fmt.Errorf("migrate: connect: %w", err)
	}
	defer db.Close()

	if err := schema.Apply(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(out, "Applied %d schema statements to %s/%s\n", len(schema.Statements()), cfg.DB.Host, cfg.DB.Name)
	return nil
}
