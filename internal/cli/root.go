// Package cli implements sentinel's command-line interface using Cobra.
// Each subcommand exercises one facet of the evaluation platform
// directly, without requiring the HTTP API to be running.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "sentinel — zero trust access evaluation",
	Long: `sentinel evaluates access requests against behavioral baselines,
composite risk scores, adaptive trust thresholds, lateral movement
detection, and policy rules — continuously, not just at login.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
