package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gourl/asyncharness/internal/config"
	"github.com/gourl/asyncharness/internal/harness"
	"github.com/gourl/asyncharness/internal/samples"
	"github.com/gourl/asyncharness/internal/server"
	"github.com/gourl/asyncharness/internal/vclock"
)

const shutdownTimeout = 5 * time.Second

var (
	filter          string
	updateSnapshots bool
	metricsAddr     string
)

// ErrSuiteFailed is returned when any test in the run did not pass.
var ErrSuiteFailed = errors.New("suite failed")

// ErrUpdateInCI is returned when snapshot updates are requested under APP_ENV=ci.
var ErrUpdateInCI = errors.New("snapshot updates are disabled in ci")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in test suite",
	Long: `Runs every built-in test on a fresh virtual clock and dependency registry,
compares snapshots against the configured backend and prints one line per
test. Exits non-zero if any test fails or errors.`,
	Example: `  # Run everything against in-memory snapshots
  harness run

  # Run the fetch tests and record snapshots to disk
  harness run --filter fetch --backend file --update`,
	RunE: runSuite,
}

func init() {
	runCmd.Flags().StringVar(&filter, "filter", "", "Only run tests whose name contains this substring")
	runCmd.Flags().BoolVar(&updateSnapshots, "update", false, "Rewrite snapshots that no longer match")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
}

func runSuite(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cfg.App.IsCI() && cfg.Snapshot.Update {
		return ErrUpdateInCI
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Metrics.Enabled() {
		srv := server.New(cfg.Metrics.Addr, log)
		if err := srv.Listen(); err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runner := harness.NewRunner(store, log, runOptions(cfg))
	report := runner.Run(ctx, samples.Suite()...)

	printReport(cmd.OutOrStdout(), report)
	if !report.OK() {
		return fmt.Errorf("%w: %d of %d tests did not pass", ErrSuiteFailed, report.Failed(), len(report.Results))
	}
	return nil
}

func runOptions(c *config.Config) harness.Options {
	return harness.Options{
		Clock: vclock.Config{
			MaxIterations: c.Clock.MaxIterations,
			TickDuration:  c.Clock.TickDuration,
		},
		UpdateSnapshots: c.Snapshot.Update,
		Filter:          filter,
	}
}

func printReport(w io.Writer, report harness.Report) {
	for _, res := range report.Results {
		fmt.Fprintf(w, "%-5s %s (%s)\n", res.Status, res.Name, res.Duration.Round(time.Microsecond))
		if res.Err != nil {
			fmt.Fprintf(w, "      %v\n", res.Err)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d errored (run %s)\n",
		report.Passed(), report.Count(harness.Fail), report.Count(harness.Error), report.RunID)
}
