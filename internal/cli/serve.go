package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fmuoria/interview-report-agent/internal/agent"
	"github.com/fmuoria/interview-report-agent/internal/api"
	"github.com/fmuoria/interview-report-agent/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP report service",
		Long: `Run the HTTP service.

Endpoints:
  POST /generate-report  multipart upload with a "file" field, returns the PDF
  GET  /health           liveness probe
  GET  /metrics          Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			m := metrics.New()
			reportAgent, err := agent.NewFromConfig(cmd.Context(), cfg, m)
			if err != nil {
				return err
			}
			defer reportAgent.Close()

			server := api.NewServer(reportAgent, m, cfg.MaxUploadBytes())
			httpServer := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return listen(cmd.Context(), httpServer)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")

	return cmd
}

// listen serves until ctx is cancelled, then drains in-flight requests
func listen(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting interview report service")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
