package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/silence/internal/api"
	"github.com/kalambet/silence/internal/config"
	"github.com/kalambet/silence/internal/logging"
	"github.com/kalambet/silence/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the incident HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the incident server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return showStatus(cmd.Context(), client)
	},
}

func runServer(ctx context.Context, cfg config.Config) error {
	fmt.Fprintf(os.Stderr, "silence version %s\n", version)

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, os.Stderr)
	logger := logging.New("server")

	if cfg.Catalog.Path != "" {
		printStep("Loading catalog from %s", cfg.Catalog.Path)
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	logger.Info("catalog ready", "incidents", cat.Len())

	handler := api.NewIncidentHandler(api.Deps{
		Catalog:        cat,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        metrics.New(),
		Logger:         logging.New("http"),
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		printWarning("could not bind %s; is silence already running?", cfg.Server.Addr())
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	return serve(ctx, srv, ln, logger)
}

// serve runs srv on ln until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func showStatus(ctx context.Context, client *apiClient) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := client.health(ctx)
	if err != nil {
		printStatus("Server", "stopped")
		printStatus("Address", "%s", client.baseURL)
		return nil
	}
	printStatus("Server", "running at %s", client.baseURL)
	printStatus("Incidents", "%d", n)
	return nil
}
