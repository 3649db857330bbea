package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/newsviews/internal/api"
	"github.com/wonny/newsviews/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the views HTTP API.

Endpoints:
  GET  /health               - Health check
  GET  /metrics              - Prometheus metrics (METRICS_ENABLED)
  POST /api/views/evaluate   - Views from pre-scored articles
  POST /api/views/run        - Full pipeline run
  GET  /api/config           - Active views configuration

Example:
  go run ./cmd/views api
  go run ./cmd/views api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== News Views API Server ===")

	a, err := newApp(context.Background(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":        a.cfg.Port,
		"env":         a.cfg.Env,
		"config_hash": a.orchestrator.ConfigHash(),
	}).Info("Initializing API server")

	viewsHandler := handlers.NewViewsHandler(a.orchestrator, a.cfg.Pipeline.Instruments, a.log)
	healthHandler := handlers.NewHealthHandler(a.db, "newsviews")

	router := api.NewRouter(viewsHandler, healthHandler, a.metrics, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
