package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/silence/internal/api"
	"github.com/kalambet/silence/internal/config"
	"github.com/kalambet/silence/internal/logging"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the incident catalog over MCP (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// stdout carries the protocol; logs go to stderr only.
		logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, os.Stderr)

		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stdioSrv := server.NewStdioServer(api.NewMCPServer(cat, version))
		slog.Info("MCP server started (stdio transport)", "incidents", cat.Len())
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
