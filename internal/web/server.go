package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ukpostcodes/internal/service"
	"github.com/ukpostcodes/internal/web/handlers"
	"github.com/ukpostcodes/internal/web/middleware"
)

// Server represents the web server.
type Server struct {
	config     Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates a new web server instance.
func NewServer(cfg Config, svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{config: cfg, logger: logger, registry: reg}
	s.setupRoutes(handlers.New(svc, cfg.Limits, logger), middleware.NewMetrics(reg))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(h *handlers.Handlers, metrics *middleware.Metrics) {
	s.router = mux.NewRouter()
	s.router.Use(metrics.Middleware)

	// Unauthenticated
	s.router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := s.router.NewRoute().Subrouter()
	api.Use(middleware.APIKey(s.config.APIKey, s.logger))

	api.HandleFunc("/database/info", h.DatabaseInfo).Methods(http.MethodGet)

	// Postcodes
	api.HandleFunc("/postcodes/search", h.SearchPostcodes).Methods(http.MethodPost)
	api.HandleFunc("/postcodes/bulk", h.BulkLookup).Methods(http.MethodPost)
	api.HandleFunc("/postcodes/validate", h.ValidatePostcodes).Methods(http.MethodPost)
	api.HandleFunc("/postcodes/parse", h.ParseText).Methods(http.MethodPost)
	api.HandleFunc("/postcodes/decompose", h.Decompose).Methods(http.MethodPost)
	api.HandleFunc("/postcodes/{postcode}", h.GetPostcode).Methods(http.MethodGet)

	// Spatial
	api.HandleFunc("/spatial/nearest", h.Nearest).Methods(http.MethodPost)
	api.HandleFunc("/spatial/reverse-geocode", h.ReverseGeocode).Methods(http.MethodPost)
	api.HandleFunc("/spatial/distance", h.Distance).Methods(http.MethodPost)

	// Areas
	api.HandleFunc("/areas/{area_type}/{area_value}", h.AreaPostcodes).Methods(http.MethodGet)
	api.HandleFunc("/outcodes/{outcode}", h.OutcodePostcodes).Methods(http.MethodGet)

	// Outermost first: request ID must exist before logging reads it.
	var handler http.Handler = s.router
	handler = middleware.RequestLogging(s.logger)(handler)
	handler = middleware.CORS(s.config.CORSOrigins)(handler)
	s.handler = middleware.RequestID(handler)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
