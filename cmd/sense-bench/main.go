// Package main provides the sense-bench binary: an evaluation harness for
// image query disambiguation methods.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sense-bench",
		Short: "sense-bench - image query disambiguation benchmark",
		Long: `sense-bench evaluates techniques for automatic image query disambiguation
against a ground-truth benchmark.

Each method proposes candidate image senses for an ambiguous query; a
ground-truth oracle simulates the user picking the right sense(s), and the
re-ranked retrieval results are scored with precision@k and aggregate
retrieval metrics, averaged over multiple randomized rounds.

Run 'sense-bench run' to execute the benchmark.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sense-bench %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
