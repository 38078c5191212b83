package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"wasteportal/internal/adapters/httpapi"
	"wasteportal/internal/core"
	"wasteportal/internal/printer"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd)
		},
	}
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	logger := a.logger(cmd.ErrOrStderr())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := core.NewPrometheusMetricsRecorder(reg)

	svc, cleanup, err := a.openService(ctx, logger, core.WithMetrics(metrics))
	if err != nil {
		return printer.Error("Cannot start server", err.Error(), []string{
			"Check the storage settings (WASTEPORTAL_STORAGE_DRIVER and friends)",
		})
	}
	defer cleanup()

	gin.SetMode(a.cfg.Server.GinMode)
	api := httpapi.NewServer(svc,
		httpapi.WithCookieName(a.cfg.Auth.CookieName),
		httpapi.WithLogger(logger),
		httpapi.WithGatherer(reg),
		httpapi.WithAccessLog(cmd.OutOrStdout()),
		httpapi.WithAllowedOrigins(a.cfg.Server.AllowedOrigins...),
	)
	defer api.Close()

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("listening", "addr", a.cfg.Server.Addr, "storage", a.cfg.Storage.Driver, "blob", a.cfg.Blob.Driver)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return printer.Error("Server stopped", err.Error(), nil)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
