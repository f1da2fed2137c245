// Package server hosts the HTTP API: the gin engine with its middleware
// stack, the Prometheus scrape endpoint and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-dashboard/internal/common/config"
	"sales-dashboard/internal/common/logger"
)

// Registrar mounts a group of routes, e.g. handler.Handler.
type Registrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type Server struct {
	router          *gin.Engine
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          logger.Logger
}

func New(cfg config.ServerConfig, log logger.Logger, registrars ...Registrar) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	router := gin.New()
	router.Use(RequestID())
	router.Use(AccessLog(log))
	router.Use(Metrics())
	router.Use(Recovery(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	for _, r := range registrars {
		r.RegisterRoutes(router.Group(""))
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: config.GetDuration(cfg.ShutdownTimeout),
		logger:          log,
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", map[string]interface{}{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", map[string]interface{}{"timeout": s.shutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}
