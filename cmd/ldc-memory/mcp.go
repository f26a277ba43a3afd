package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tpcministries/ldc-command-center/internal/api/mcp"
	"github.com/tpcministries/ldc-command-center/internal/server"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the memory tools over MCP on stdin/stdout",
		Long: `Serve the memory tools as a Model Context Protocol server speaking
line-delimited JSON-RPC 2.0 on stdin/stdout. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := mcp.NewServer(a.engine, mcp.WithLogger(a.logger), mcp.WithVersion(server.Version))
			a.logger.Info("mcp server ready", "version", server.Version)

			err = mcp.NewStdioTransport(srv, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger).Serve(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
