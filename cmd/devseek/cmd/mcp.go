package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devseek/devseek/internal/config"
	"github.com/devseek/devseek/internal/logging"
	"github.com/devseek/devseek/internal/mcp"
	"github.com/devseek/devseek/pkg/version"
)

func newMCPCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server for AI assistants",
		Long: `Run devseek as a Model Context Protocol server.

Exposes the dev_search and dev_trending tools plus a query-metrics
resource over stdio, for use from MCP clients. Logs go to the log
file only; stdout and stderr belong to the protocol stream.

Add to an MCP client config:
  {"command": "devseek", "args": ["mcp"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context(), transport)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "Transport protocol (stdio)")

	return cmd
}

func runMCP(ctx context.Context, transport string) error {
	// stdout carries JSON-RPC; logging must never touch it.
	cleanup, err := logging.SetupMCPMode()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	logger := slog.Default()

	logger.Info("mcp_starting",
		slog.String("transport", transport),
		slog.String("version", version.Version))

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		logger.Warn("config_load_failed", slog.String("error", err.Error()))
		cfg = config.NewConfig()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pl, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	server, err := mcp.NewServer(pl.engine, logger)
	if err != nil {
		return err
	}
	server.SetMetrics(pl.metrics)

	return server.Serve(ctx, transport)
}
