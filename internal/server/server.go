// Package server exposes the app over HTTP: REST endpoints for the three
// features, login against Google, and SSE streams that push a new snapshot
// whenever a store changes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/successapp/success/internal/config"
	"github.com/successapp/success/internal/session"
)

// Server owns the gin engine and the http.Server wrapping it.
type Server struct {
	cfg      config.Config
	log      *zap.SugaredLogger
	registry *session.Registry
	verifier session.Verifier
	issuer   *session.TokenIssuer
	engine   *gin.Engine
}

// New assembles the engine with middleware and routes.
func New(cfg config.Config, log *zap.SugaredLogger, registry *session.Registry, verifier session.Verifier, issuer *session.TokenIssuer) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		registry: registry,
		verifier: verifier,
		issuer:   issuer,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(requestLogger(log))
	engine.Use(s.authMiddleware())
	s.registerRoutes(engine)
	s.engine = engine

	return s
}

// Handler returns the HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.ServerPort,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server listening", "port", s.cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
