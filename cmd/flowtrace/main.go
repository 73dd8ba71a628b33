package main

import (
	"os"

	"github.com/spf13/cobra"

	"flowtrace/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "flowtrace",
	Short: "Per-thread event tracer for dataflow executors",
	Long: `flowtrace records scheduler and compute events of executor threads into
per-thread binary trace files and decodes them again`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level (debug|info|warn|error); overrides FLOWTRACE_LOG_LEVEL")
	rootCmd.PersistentFlags().Bool("log-dev", false, "human-readable diagnostic logs")
}

// main executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
