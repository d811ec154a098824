package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "riskbench",
		Short: "riskbench - evaluate risk predictors against the deterministic classifier",
		Long: `riskbench evaluates pluggable weather-health risk predictors.

It runs a fixed catalog of weather scenarios against a prediction backend,
scores every answer against the deterministic weighted-score classifier,
persists one immutable result record per run, and compares records across
models.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			// slog.SetLogLoggerLevel requires Go 1.22; this is the 1.21 equivalent.
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCompareCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
