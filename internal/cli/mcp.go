package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grump/agentguard/internal/config"
	guardmcp "github.com/grump/agentguard/internal/mcp"
	"github.com/grump/agentguard/internal/setup"
)

var mcpConfig string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVarP(&mcpConfig, "config", "c", "", "Path to config YAML")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the safety checks as an MCP server on stdio",
	Long:  "Exposes evaluate, sanitize, profile, usage, block, and unblock as\nMCP tools so an agent host can enforce safety without an HTTP hop.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(mcpConfig)
	if err != nil {
		return err
	}

	// stdout carries the MCP transport; logs must stay on stderr.
	log := setup.NewLogger(cfg.Log)

	srv, err := guardmcp.New(mcpConfig, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return srv.Run(ctx)
}
