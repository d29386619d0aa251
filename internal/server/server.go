// Package server provides the HTTP server that wires all services together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/beirkit/beirkit/internal/bus"
	"github.com/beirkit/beirkit/internal/config"
	"github.com/beirkit/beirkit/internal/encode"
	"github.com/beirkit/beirkit/internal/evaluation"
	"github.com/beirkit/beirkit/internal/pkg/logger"
	"github.com/beirkit/beirkit/internal/pkg/middleware"
	"github.com/beirkit/beirkit/internal/qdrant"
	"github.com/beirkit/beirkit/internal/retrieval"
	"github.com/beirkit/beirkit/internal/validate"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg        *config.Config
	version    string
	log        *logger.Logger
	httpServer *http.Server

	// Services
	bus       bus.Bus
	encoder   encode.Encoder
	searcher  retrieval.Searcher
	validator *validate.Validator
	evaluator *evaluation.Evaluator

	redisCache *encode.RedisCache
	qdrant     *qdrant.Client

	mu      sync.RWMutex
	started bool
}

// Timeouts for the HTTP server.
const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 5 * time.Minute // Evaluation runs can be slow
	shutdownTimeout = 30 * time.Second
)

// New creates a new server with all dependencies.
func New(cfg *config.Config, version string, log *logger.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		version: version,
		log:     log,
	}

	b, err := bus.NewBus(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	s.bus = b

	encoder, err := s.buildEncoder()
	if err != nil {
		return nil, err
	}
	s.encoder = encoder

	searcher, err := s.buildSearcher(encoder)
	if err != nil {
		return nil, err
	}
	s.searcher = searcher

	s.validator = validate.New(log)
	s.validator.Bus = s.bus

	s.evaluator = evaluation.NewEvaluator(s.searcher, cfg.Eval.KValues, log).WithBus(s.bus)

	return s, nil
}

func (s *Server) buildEncoder() (encode.Encoder, error) {
	base := encode.NewHashingEncoder(s.cfg.Encoder.Dim, s.cfg.Encoder.BatchSize)

	switch s.cfg.Cache.Type {
	case "redis":
		ttl := time.Duration(s.cfg.Cache.TTL) * time.Second
		cache, err := encode.NewRedisCache(s.cfg.Cache.RedisURL, ttl, s.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		s.redisCache = cache
		return encode.NewCachedEncoder(base, cache), nil
	default:
		return encode.NewCachedEncoder(base, encode.NewMemoryCache(s.cfg.Cache.Size)), nil
	}
}

func (s *Server) buildSearcher(encoder encode.Encoder) (retrieval.Searcher, error) {
	if s.cfg.Eval.Searcher == "qdrant" {
		qc, err := qdrant.NewClient(qdrant.ClientConfig{
			Host:             s.cfg.Qdrant.Host,
			Port:             s.cfg.Qdrant.Port,
			APIKey:           s.cfg.Qdrant.APIKey,
			UseTLS:           s.cfg.Qdrant.UseTLS,
			CollectionPrefix: s.cfg.Qdrant.CollectionPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		s.qdrant = qc
		return qdrant.NewSearcher(qc, encoder, "corpus", s.cfg.Encoder.BatchSize), nil
	}
	return retrieval.NewExactSearcher(encoder, s.cfg.Eval.ScoreFunction, s.cfg.Eval.Workers), nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	addr := s.cfg.Address()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	s.log.Info("starting HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("HTTP shutdown error")
		}
	}

	if s.redisCache != nil {
		s.redisCache.Close()
	}
	if s.qdrant != nil {
		s.qdrant.Close()
	}
	if s.bus != nil {
		s.bus.Close()
	}

	s.started = false
	s.log.Info("server stopped")

	return nil
}

// setupRoutes configures all HTTP routes and middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)

	var handler http.Handler = mux

	if s.cfg.Security.RateLimit > 0 {
		rlCfg := middleware.DefaultRateLimiterConfig()
		rlCfg.RequestsPerSecond = float64(s.cfg.Security.RateLimit)
		rlCfg.Burst = s.cfg.Security.RateLimit * 2
		handler = middleware.NewRateLimiter(rlCfg).Middleware(handler)
	}

	return s.wrapWithLogging(handler)
}

func (s *Server) wrapWithLogging(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(wrapped, r)

		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start).String(),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
