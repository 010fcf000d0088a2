package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/worktimer/worktimer/internal/config"
	"github.com/worktimer/worktimer/internal/monitoring"
)

type Server struct {
	config  *config.Config
	handler *Handler
	engine  *gin.Engine
	server  *http.Server
	logger  *zap.Logger
}

func NewServer(cfg *config.Config, tracker Tracker, metrics *monitoring.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := gin.New()
	// identities may contain escaped slashes
	engine.UseRawPath = true
	engine.Use(gin.Recovery(), requestLogger(logger), monitoring.Middleware(metrics))

	handler := NewHandler(tracker, logger)
	handler.SetupRoutes(engine)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		engine:  engine,
		server:  httpServer,
		logger:  logger,
	}
}

// Start binds the listen address and serves until Shutdown. A bind failure
// is returned synchronously; serve errors are sent on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("web server listening", zap.String("addr", "http://"+s.server.Addr))

	errc := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()
	return errc, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()))
	}
}
