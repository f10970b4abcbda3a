package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentguard",
	Short: "Safety enforcement pipeline for AI agent traffic",
	Long:  "Runs layered safety checks on agent requests: subject standing, rate and cost quotas, content filtering, and prompt injection detection. Rejections are enforced, recorded, and alertable.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
