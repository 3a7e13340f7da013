package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/seoulhigh/internal/config"
	"github.com/rickgao/seoulhigh/internal/metrics"
	"github.com/rickgao/seoulhigh/internal/service"
)

// Server serves the API.
type Server struct {
	cfg        config.ServerConfig
	metricsCfg config.MetricsConfig
	svc        *service.Service
	metrics    *metrics.Metrics
	logger     *slog.Logger

	pinger Pinger

	hub        *hub
	engine     *gin.Engine
	httpServer *http.Server
}

// Pinger checks the database connection. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithPinger reports database connectivity on /healthz.
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.pinger = p
	}
}

// New builds the server and its routes. m may be nil.
func New(cfg config.ServerConfig, metricsCfg config.MetricsConfig, svc *service.Service, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		metricsCfg: metricsCfg,
		svc:        svc,
		metrics:    m,
		logger:     logger,
		hub:        newHub(cfg.AllowedOrigins, logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.buildRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	go s.hub.run(hubCtx)
	go s.feed(hubCtx)

	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		s.logger.Info("http server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) buildRouter() *gin.Engine {
	if s.cfg.Mode != "" {
		gin.SetMode(s.cfg.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), s.observe(), s.cors())

	api := router.Group("/api")
	api.GET("/trends/dates", s.handleDates)
	api.GET("/trends/markets", s.handleMarkets)
	api.GET("/trends", s.handleTrend)
	api.GET("/new-highs", s.handleNewHighs)
	api.GET("/event-study", s.handleEventStudy)
	api.GET("/dashboard", s.handleDashboard)

	router.GET("/ws/dashboard", s.handleDashboardWS)
	router.GET("/healthz", s.handleHealth)
	router.GET("/version", s.handleVersion)

	if s.metricsCfg.Enabled && s.metrics != nil {
		router.GET(s.metricsCfg.Path, gin.WrapH(s.metrics.Handler()))
	}
	return router
}
