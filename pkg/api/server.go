// Package api serves a read-only inspection API over the saved journal snapshots.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssargent/stash/pkg/codec"
	"github.com/ssargent/stash/pkg/logging"
	"github.com/ssargent/stash/pkg/store"
)

// ShutdownTimeout bounds how long StartServer waits for requests in flight
const ShutdownTimeout = 5 * time.Second

// Server holds the API server state
type Server struct {
	store    store.Store
	schemas  map[string]Scanner
	registry *codec.Registry
	config   ServerConfig
	metrics  *Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewServer creates a new API server over st. Its metrics are registered on
// config.Metrics, or on the global registry when that is nil.
func NewServer(st store.Store, config ServerConfig) *Server {
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if config.Metrics != nil {
		reg, gatherer = config.Metrics, config.Metrics
	}

	s := &Server{
		store:    st,
		schemas:  make(map[string]Scanner, len(config.Schemas)),
		registry: config.Registry,
		config:   config,
		metrics:  NewMetrics(reg),
		gatherer: gatherer,
		logger:   config.Logger,
	}
	if s.registry == nil {
		s.registry = codec.DefaultRegistry()
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	for _, schema := range config.Schemas {
		s.schemas[schema.Name()] = schema
	}
	return s
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/journals", s.metrics.InstrumentHandler("GET", "/api/v1/journals", s.handleListJournals))
		r.Get("/journals/{name}", s.metrics.InstrumentHandler("GET", "/api/v1/journals/{name}", s.handleGetJournal))
		r.Get("/codecs", s.metrics.InstrumentHandler("GET", "/api/v1/codecs", s.handleCodecs))
	})

	return r
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// StartServer serves the inspection API until ctx is cancelled
func StartServer(ctx context.Context, st store.Store, config ServerConfig) error {
	server := NewServer(st, config)
	httpServer := &http.Server{
		Addr:              config.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("starting inspection API", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("inspection API: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	server.logger.Info("stopping inspection API")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("inspection API shutdown: %w", err)
	}
	// ListenAndServe returns ErrServerClosed once Shutdown was called
	<-errCh
	return nil
}
