// Package httpapi exposes the TruthMate JSON API over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/logging"
	"github.com/truthmate/truthmate/internal/server/gateway"
	"github.com/truthmate/truthmate/internal/server/imagestore"
	"github.com/truthmate/truthmate/internal/server/ratelimit"
	"github.com/truthmate/truthmate/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// ModelGateway is the analysis service as seen by the handlers.
type ModelGateway interface {
	Call(ctx context.Context, capability, userID string, payload map[string]any) (map[string]any, error)
	Health(ctx context.Context) gateway.HealthStatus
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP layer. Images may be nil when the
// archive is disabled.
type Deps struct {
	Users         *services.UserService
	Verifications *services.VerificationService
	Bookmarks     *services.BookmarkService
	Gateway       ModelGateway
	Store         Pinger
	Limiter       ratelimit.Limiter
	Images        imagestore.Store
	SessionTTL    time.Duration
}

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewServer(address string, deps Deps, l logging.Logger) *Server {
	logger := l.With("module", "http_server")
	return &Server{
		address: address,
		engine:  newRouter(deps, logger),
		logger:  logger,
	}
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
