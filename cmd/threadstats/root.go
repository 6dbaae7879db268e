package main

import (
	"fmt"
	"os"

	"mercator-hq/threadstats/pkg/cli"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "threadstats",
	Short: "Per-thread CPU and wall-clock accounting for worker pools",
	Long: `threadstats measures, per worker thread, CPU and wall-clock time spent
executing versus processing work items, and the number of items processed.

It derives cross-thread averages per item, publishes them to a Prometheus
registry, and logs them on a schedule together with a per-stage breakdown.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
