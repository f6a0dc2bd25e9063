// Package http exposes retrieval, grounded answers and import over a gin
// REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
)

// CitationsHeader carries the base64 JSON citation list.
const CitationsHeader = "X-Citations"

// Server defaults.
const (
	DefaultPort            = 8080
	DefaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("http: retrieval service is required")

// Ports aggregates the services the API drives.
type Ports struct {
	// Retrieval serves /retrieve. Required.
	Retrieval driving.RetrievalService

	// Answer serves /answer. Optional.
	Answer driving.AnswerService

	// Ingest serves /import. Optional.
	Ingest driving.IngestService

	// Providers serves provider health. Optional.
	Providers driving.ProviderRegistry
}

// Config configures the API server.
type Config struct {
	Port int

	// AllowedOrigins lists CORS origins. "*" allows any origin.
	AllowedOrigins []string

	// Version is reported by /health.
	Version string

	ShutdownTimeout time.Duration
}

// Server is the REST API.
type Server struct {
	ports   *Ports
	cfg     Config
	metrics *metrics.Metrics
	engine  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer builds the router over ports.
func NewServer(ports *Ports, cfg Config, opts ...Option) (*Server, error) {
	if ports == nil || ports.Retrieval == nil {
		return nil, ErrMissingRetrievalService
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{ports: ports, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if logger.IsVerbose() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithWriter(logger.Writer()))
	r.Use(s.observe())
	r.Use(cors.New(corsConfig(s.cfg.AllowedOrigins)))

	r.GET("/health", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/retrieve", s.handleRetrieve)
		v1.POST("/answer", s.handleAnswer)
		v1.POST("/import", s.handleImport)
		v1.GET("/providers/health", s.handleProviderHealth)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{CitationsHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// observe records per-route request counts and latency.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTP(route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured port until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// status maps service errors to HTTP status codes.
func status(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidFilters):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrProviderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	code := status(err)
	if code >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(code, errorResponse{Error: err.Error()})
}
