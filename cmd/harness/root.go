package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gourl/asyncharness/internal/config"
	"github.com/gourl/asyncharness/pkg/logger"
)

var (
	// Global flags.
	logLevel    string
	backend     string
	snapshotDir string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "harness",
	Short: "Deterministic async test harness",
	Long: `Runs tests against a virtual clock, deferred values, substitutable
dependencies and stored snapshots.

Configuration is read from the environment (APP_ENV, LOG_LEVEL,
SNAPSHOT_BACKEND, REDIS_*, DB_*, ...). Flags override it.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Snapshot backend: memory, file, redis, postgres")
	rootCmd.PersistentFlags().StringVar(&snapshotDir, "snapshot-dir", "", "Directory for the file backend")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	applyOverrides(loaded)
	if err := loaded.Validate(); err != nil {
		return err
	}

	cfg = loaded
	log = logger.New(os.Stderr, cfg.App.LogLevel).With("command", cmd.Name())
	return nil
}

func applyOverrides(c *config.Config) {
	if logLevel != "" {
		c.App.LogLevel = logLevel
	}
	if backend != "" {
		c.Snapshot.Backend = backend
	}
	if snapshotDir != "" {
		c.Snapshot.Dir = snapshotDir
	}
	if metricsAddr != "" {
		c.Metrics.Addr = metricsAddr
	}
	if updateSnapshots {
		c.Snapshot.Update = true
	}
}
