package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prehisle/ydms-sub001/internal/api"
	"github.com/prehisle/ydms-sub001/internal/batch"
	"github.com/prehisle/ydms-sub001/internal/config"
	"github.com/prehisle/ydms-sub001/internal/handlers"
	"github.com/prehisle/ydms-sub001/internal/logger"
	"github.com/prehisle/ydms-sub001/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

// Server runs the HTTP listener and owns graceful shutdown of the
// listener and the batch executor.
type Server struct {
	httpServer *http.Server
	executor   *batch.Executor
	log        logger.Logger
}

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(
	cfg *config.Config,
	executor *batch.Executor,
	previewer *batch.Previewer,
	registry *batch.Registry,
	m *metrics.Metrics,
	log logger.Logger,
) *Server {
	batchHandler := handlers.NewBatchHandler(previewer, executor, registry, cfg.Batch.StaleAfter, log)
	router := api.NewRouter(batchHandler, m, cfg, log)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		executor: executor,
		log:      log,
	}
}

// Run serves until SIGINT or SIGTERM, then drains in-flight batches and
// the listener.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		s.log.Info("Shutdown signal received",
			logger.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.executor.Shutdown(ctx); err != nil {
		s.log.Warn("Executor did not drain cleanly", logger.Error(err))
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
