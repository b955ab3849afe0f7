package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gourl/asyncharness/internal/database"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres snapshot migrations",
	Long: `Applies pending migrations for the postgres snapshot backend, using the
DB_* environment. With --down, rolls back the most recent one instead.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back the last applied migration")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	pool, err := database.NewPool(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	migrator, err := database.NewMigrator(pool)
	if err != nil {
		return err
	}

	if migrateDown {
		if err := migrator.Down(ctx); err != nil {
			return err
		}
	} else {
		applied, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "count", applied)
	}

	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}
