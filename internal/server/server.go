// Package server wires the HTTP API, health and metrics endpoints into an
// http.Server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tpcministries/ldc-command-center/internal/config"
	"github.com/tpcministries/ldc-command-center/internal/logging"
	"github.com/tpcministries/ldc-command-center/internal/metrics"
	"github.com/tpcministries/ldc-command-center/web/handlers"
)

// Version is reported by the health endpoint.
var Version = "dev"

// shutdownTimeout bounds graceful shutdown once the context is canceled.
const shutdownTimeout = 5 * time.Second

// Deps are the collaborators the server routes to.
type Deps struct {
	Engine  handlers.MemoryEngine
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Gatherer backs /metrics. Nil leaves the endpoint unregistered.
	Gatherer prometheus.Gatherer
}

// securityHeadersMiddleware adds security-related HTTP headers to all responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// NewHandler builds the full middleware chain and route table.
func NewHandler(cfg config.ServerConfig, deps Deps) http.Handler {
	logger := logging.OrNop(deps.Logger)
	mux := http.NewServeMux()

	apiMux := http.NewServeMux()
	handlers.NewAPIHandlers(deps.Engine, logger).Register(apiMux)
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg.APIToken))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, Version)
	})

	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	if cfg.RateLimitRPS > 0 {
		handler = handlers.RateLimitMiddleware(handler, handlers.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	handler = handlers.RequestLogger(handler, logger, deps.Metrics)
	return securityHeadersMiddleware(handler)
}

// Start listens on cfg.Host:cfg.Port and serves until ctx is canceled, then
// shuts down gracefully. It returns the bound address (useful with port 0)
// and a channel that is closed once the server has stopped.
func Start(ctx context.Context, cfg config.ServerConfig, deps Deps) (string, <-chan struct{}, error) {
	logger := logging.OrNop(deps.Logger)

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Generation waits on the oracle.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	done := make(chan struct{})
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		logger.Info("server stopped", "addr", actualAddr)
	}()

	logger.Info("server listening", "addr", actualAddr)
	return actualAddr, done, nil
}
