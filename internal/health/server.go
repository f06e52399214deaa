// Package health exposes the liveness probe and metrics endpoint.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pulsebridge/internal/metrics"
)

// Server serves GET /healthz and GET /metrics.
type Server struct {
	addr   string
	server *http.Server
	logger *slog.Logger
}

func NewServer(host string, port int, logger *slog.Logger) *Server {
	return &Server{
		addr:   fmt.Sprintf("%s:%d", host, port),
		logger: logger,
	}
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("GET /metrics", metrics.Collector.Handler())

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("health server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	}
}
