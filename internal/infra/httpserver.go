package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server to provide graceful startup and shutdown helpers
// for the client's operational endpoints.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer creates a server listening on cfg.MetricsAddr. It returns a
// nil-safe wrapper whose Start is a no-op when no address is configured.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	if cfg == nil || cfg.MetricsAddr == "" {
		return &HTTPServer{}
	}
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &HTTPServer{server: srv}
}

// Enabled reports whether the server has an address to listen on.
func (s *HTTPServer) Enabled() bool {
	return s.server != nil
}

// Start runs the HTTP server in the current goroutine. A graceful shutdown is
// not reported as an error.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
