// Command salary-probe drives a running salary service with generated survey
// answers and inspects model artifacts offline.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/salarygauge/internal/probe"
	"github.com/okian/salarygauge/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	defaultRunTimeout = 10 * time.Minute
	logFilePermission = 0o600
	workersPerCPU     = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logFile string
		format  string
		closer  io.Closer
	)
	root := &cobra.Command{
		Use:          "salary-probe",
		Short:        "Exercise and inspect the salary prediction service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := setupLogging(cmd.OutOrStdout(), logFile, format)
			closer = c
			return err
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
			if closer != nil {
				_ = closer.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&logFile, "log", "", "Also write logs to this file")
	root.PersistentFlags().StringVar(&format, "log-format", string(logger.FormatText), "Log format: text or json")

	root.AddCommand(newRunCmd(), newInspectCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cfg := probe.DefaultConfig()
	cfg.Workers = runtime.NumCPU() * workersPerCPU
	deadline := defaultRunTimeout

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit generated records and recompute a sample without the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()

			stats, err := probe.NewRunner(cfg, logger.Get().Named("probe")).Run(ctx)
			if err != nil {
				logger.Get().Error(ctx, "probe failed", logger.Error(err))
				return err
			}
			if stats.Mismatched > 0 {
				return fmt.Errorf("%d predictions changed between calls", stats.Mismatched)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	f.IntVar(&cfg.NumRecords, "records", cfg.NumRecords, "Number of records to generate and submit")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent submitters")
	f.IntVar(&cfg.Verify, "verify", cfg.Verify, "Records recomputed through /predict/explain and compared")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&deadline, "deadline", deadline, "Overall run deadline")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Generator seed (0 picks one from the clock)")
	f.StringVar(&cfg.OutputFile, "output", "", "Write generated records to this JSON file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log every rejected or failed submission")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Print the schema, encoders and scenario prediction of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return probe.Inspect(cmd.Context(), args[0], cmd.OutOrStdout(), logger.Get().Named("inspect"))
		},
	}
}

// setupLogging initialises the global logger on out and, when logFile is
// set, on the file as well.
func setupLogging(out io.Writer, logFile, format string) (io.Closer, error) {
	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		file = f
		out = io.MultiWriter(out, f)
	}
	if err := logger.Init(logger.WithFormat(logger.Format(format)), logger.WithOutput(out)); err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if file == nil {
		return nil, nil
	}
	return file, nil
}
