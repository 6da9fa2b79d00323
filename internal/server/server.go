package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"shownames/internal/api"
	"shownames/internal/batcher"
	"shownames/internal/cache"
	"shownames/internal/config"
	"shownames/internal/decorator"
	"shownames/internal/namecache"
	"shownames/internal/resolver"
	"shownames/internal/search"
	"shownames/internal/ws"
)

// Server owns the name cache, the batch coordinator and the HTTP endpoints
type Server struct {
	cfg         *config.Config
	names       *namecache.Cache
	searcher    *search.Client
	coordinator *batcher.Coordinator
	cache       cache.Cache
	service     *api.Service
	httpServer  *http.Server
	stopStats   chan struct{}
	logger      zerolog.Logger
}

// New creates a new Server
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	var renderCache cache.Cache
	if cfg.IsCacheEnabled() {
		var err error
		renderCache, err = cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.GetTTLDuration())
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}

		logger.Info().
			Int("size", cfg.Cache.Size).
			Int("ttl", cfg.Cache.TTL).
			Msg("cache enabled")
	} else {
		renderCache = cache.NewNoopCache()
		logger.Info().Msg("cache disabled")
	}

	if cfg.IsCircuitBreakerEnabled() {
		logger.Info().
			Int("failureThreshold", cfg.CircuitBreaker.FailureThreshold).
			Int("recoveryTimeout", cfg.CircuitBreaker.RecoveryTimeout).
			Msg("circuit breaker enabled")
	}

	names := namecache.New()
	searcher := search.NewClientFromConfig(cfg, logger)
	coordinator := batcher.NewCoordinatorFromConfig(cfg, searcher, names, logger)
	mentionResolver := resolver.New(names, coordinator, logger)
	mentionDecorator := decorator.NewFromConfig(cfg, mentionResolver, logger)

	if !mentionDecorator.Enabled() {
		logger.Warn().
			Bool("enableNames", cfg.EnableNames).
			Bool("showFullnameInMentions", cfg.ShowFullnameInMentions).
			Msg("full names in mentions disabled, posts pass through unchanged")
	}

	return &Server{
		cfg:         cfg,
		names:       names,
		searcher:    searcher,
		coordinator: coordinator,
		cache:       renderCache,
		service:     api.NewService(mentionDecorator, mentionResolver, renderCache, logger),
		stopStats:   make(chan struct{}),
		logger:      logger,
	}, nil
}

// Service returns the mention service
func (s *Server) Service() *api.Service {
	return s.service
}

// Handler returns the combined HTTP and WebSocket handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(s.service, s.logger))
	mux.Handle("/", api.NewHandler(s.service, s.coordinator, s.cfg, s.logger))
	return mux
}

// Start starts the HTTP server in the background
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		s.logger.Info().
			Str("addr", addr).
			Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	go s.statsLoop(s.cfg.GetStatsLogIntervalDuration())

	s.logger.Info().
		Str("http", fmt.Sprintf("http://%s/decorate", addr)).
		Str("ws", fmt.Sprintf("ws://%s/ws", addr)).
		Msg("endpoint available")

	return nil
}

// statsLoop periodically logs search and batching counters
func (s *Server) statsLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopStats:
			return
		case <-ticker.C:
			s.logStats()
		}
	}
}

func (s *Server) logStats() {
	stats := s.coordinator.Stats()
	s.logger.Info().
		Uint64("searches", s.searcher.Stats().SwapRequestCount()).
		Uint64("searchFailures", s.searcher.Stats().SwapFailureCount()).
		Uint64("batches", stats.Batches).
		Uint64("usernames", stats.Usernames).
		Int("cachedNames", s.names.Len()).
		Msg("stats")
}

// Stop gracefully stops the server. It is safe to call without Start.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server...")

	var httpErr error
	if s.httpServer != nil {
		close(s.stopStats)
		httpErr = s.httpServer.Shutdown(ctx)
	}

	s.coordinator.Close(ctx)

	if s.cache != nil {
		s.cache.Close()
	}

	if httpErr != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", httpErr)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
