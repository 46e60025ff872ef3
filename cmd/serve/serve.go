// Package serve implements the HTTP API command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/evidence/cmd/common"
	"github.com/jonesrussell/north-cloud/evidence/internal/api"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

const shutdownTimeout = 30 * time.Second

// Command returns the serve command.
func Command() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve single-URL analysis and metrics over HTTP",
		Long: `Start the HTTP API:

  GET  /health           liveness
  GET  /metrics          Prometheus metrics
  POST /api/v1/analyze   {"company": "...", "url": "...", "keyword": "..."}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			components, err := common.BuildComponents(deps.Config, deps.Logger)
			if err != nil {
				return fmt.Errorf("build components: %w", err)
			}
			defer func() { _ = components.Close() }()

			if addr == "" {
				addr = deps.Config.Server.Address()
			}
			if !deps.Config.Logging.Development {
				gin.SetMode(gin.ReleaseMode)
			}

			handler := api.NewHandler(api.NewService(components.Fetcher, components.Analyzer), deps.Logger)
			server := &http.Server{
				Addr:         addr,
				Handler:      api.NewRouter(handler, components.Metrics.Handler()),
				ReadTimeout:  deps.Config.Server.ReadTimeout,
				WriteTimeout: deps.Config.Server.WriteTimeout,
				IdleTimeout:  deps.Config.Server.IdleTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, server, deps.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.host/server.port)")
	return cmd
}

// serve runs server until ctx ends, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, log logger.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case serveErr := <-errChan:
		return fmt.Errorf("server error: %w", serveErr)
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
