package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MalithGihan/flowviz-service/internal/config"
	"github.com/MalithGihan/flowviz-service/internal/graphsvc"
	"github.com/MalithGihan/flowviz-service/internal/logging"
	"github.com/MalithGihan/flowviz-service/internal/metrics"
	"github.com/MalithGihan/flowviz-service/internal/render"
	"github.com/MalithGihan/flowviz-service/internal/server"
	"github.com/MalithGihan/flowviz-service/internal/session"
	"github.com/MalithGihan/flowviz-service/internal/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := store.New(cfg.DataRoot)
	if err != nil {
		return fmt.Errorf("opening data root: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := render.NewGraphviz(ctx)
	if err != nil {
		return fmt.Errorf("starting graphviz: %w", err)
	}
	defer renderer.Close()

	graphs := graphsvc.New(cfg.GraphServiceURL,
		graphsvc.WithTimeout(cfg.UpstreamTimeout),
		graphsvc.WithRateLimit(cfg.UpstreamRPS, 1),
		graphsvc.WithLogger(logger.Named("graphsvc")),
	)

	srv := server.New(server.Deps{
		Graphs:      graphs,
		Sessions:    session.NewManager(cfg.DisplayDefaults()),
		Store:       st,
		Renderer:    renderer,
		Metrics:     metrics.NewCollector("flowviz"),
		Logger:      logger,
		UploadLimit: cfg.UploadLimitBytes(),
		CORSOrigins: cfg.CORSOrigins,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", httpSrv.Addr),
			zap.String("graphService", cfg.GraphServiceURL),
			zap.String("dataRoot", cfg.DataRoot),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
