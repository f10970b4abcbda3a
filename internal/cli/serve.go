package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/grump/agentguard/internal/config"
	"github.com/grump/agentguard/internal/server"
	"github.com/grump/agentguard/internal/setup"
)

var serveConfig string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Path to config YAML (default ~/.agentguard/config.yaml)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP safety API",
	Long:  "Runs agentguard as a central safety server over HTTP.\nAgent hosts call /api/v1/evaluate before forwarding requests.\nSupports hot-reload of the config file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}

	cfg, err := config.Load(serveConfig)
	if err != nil {
		return err
	}
	log := setup.NewLogger(cfg.Log)

	srv, err := server.New(serveConfig, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader, err := server.NewReloader(srv)
	if err != nil {
		log.Warn().Err(err).Msg("hot-reload disabled")
	}
	if reloader != nil {
		go reloader.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
	}()

	return srv.Run(ctx)
}
