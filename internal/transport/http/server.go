package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/internal/service/metrics"
	"github.com/your-org/integrations-service/pkg/logger"
	"github.com/your-org/integrations-service/pkg/resilience/ratelimit"
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	handler     *Handler
	rateLimiter *ratelimit.Limiter
	cfg         config.HTTPServerConfig
	endpoints   config.EndpointsConfig
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithRateLimiter sets the rate limiter for the server.
func WithRateLimiter(limiter *ratelimit.Limiter) ServerOption {
	return func(s *Server) {
		s.rateLimiter = limiter
	}
}

// ServerConfig holds all configuration needed for the HTTP server.
type ServerConfig struct {
	HTTP      config.HTTPServerConfig
	Endpoints config.EndpointsConfig
}

// NewServer creates a new HTTP server.
func NewServer(cfg ServerConfig, handler *Handler, opts ...ServerOption) (*Server, error) {
	server := &Server{
		handler:   handler,
		cfg:       cfg.HTTP,
		endpoints: cfg.Endpoints,
	}

	// Apply functional options
	for _, opt := range opts {
		opt(server)
	}

	router := chi.NewRouter()

	// Middleware stack (order matters)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	// Rate limiter middleware (early in the chain to reject requests fast)
	if server.rateLimiter != nil {
		router.Use(server.rateLimiter.Middleware())
		logger.Info("rate limiter middleware enabled")
	}

	router.Use(requestLogger)
	router.Use(metrics.HTTPMetricsMiddleware(handler.metrics))
	router.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	// Register routes with configurable endpoints
	server.registerRoutes(router, handler)

	httpServer := &http.Server{
		Addr:           cfg.HTTP.Addr,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	server.httpServer = httpServer

	return server, nil
}

// registerRoutes registers all HTTP routes with configurable endpoints.
func (s *Server) registerRoutes(r chi.Router, h *Handler) {
	ep := s.endpoints

	// OAuth flow endpoints
	if ep.Authorize != "" {
		r.Post(ep.Authorize, h.Authorize)
	}
	if ep.OAuthCallback != "" {
		r.Get(ep.OAuthCallback, h.OAuthCallback)
	}
	if ep.Credentials != "" {
		r.Post(ep.Credentials, h.Credentials)
	}
	if ep.Load != "" {
		r.Post(ep.Load, h.Load)
	}

	// Health endpoints
	if ep.Health != "" {
		r.Get(ep.Health, h.Health)
		// Also support common variants
		r.Get(ep.Health+"z", h.Health)
	}
	if ep.Ready != "" {
		r.Get(ep.Ready, h.Ready)
		r.Get(ep.Ready+"z", h.Ready)
	}
	if ep.Live != "" {
		r.Get(ep.Live, h.Live)
		r.Get(ep.Live+"z", h.Live)
	}

	// Metrics endpoint
	if ep.Metrics != "" {
		r.Handle(ep.Metrics, promhttp.Handler())
	}
}

// Router returns the configured router. Test hook.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logger.Info("starting HTTP server",
		logger.String("addr", s.cfg.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// requestLogger is a middleware that logs HTTP requests.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// Log the request
		logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
			logger.String("remote_addr", r.RemoteAddr),
			logger.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
