package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aitril",
	Short: "Multi-agent LLM coordination engine",
	Long: `Aitril fans a prompt out to multiple LLM providers and multiplexes
their answers into one feed.

Core capabilities:
- Tri-lam: ask every enabled provider the same question in parallel
- Coordination strategies: sequential, consensus, debate, specialist
- Build pipeline: plan, implement, review, and deploy code artifacts
- Web observer: watch runs live over a WebSocket feed

Run 'aitril init' once to create a configuration, then 'aitril tri' to
fan a prompt out.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(triCmd)
	rootCmd.AddCommand(coordinateCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}
