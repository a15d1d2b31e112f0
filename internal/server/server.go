package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/config"
	"github.com/pageza/alchemorsel-v2/gateway/internal/api"
	"github.com/pageza/alchemorsel-v2/gateway/internal/logger"
	"github.com/pageza/alchemorsel-v2/gateway/internal/middleware"
)

// ChatScope is the token scope required by the chat endpoints
const ChatScope = "chat"

// Dependencies are the collaborators the HTTP surface is built from.
// Tokens and Limiter are optional; nil disables auth and rate limiting.
type Dependencies struct {
	Workflows api.Workflows
	Usage     api.UsageRecorder
	Tokens    middleware.TokenValidator
	Limiter   *middleware.RateLimiter
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    *zap.Logger
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	router.GET("/health", api.HealthCheck)

	var guards []gin.HandlerFunc
	if deps.Tokens != nil {
		guards = append(guards, middleware.AuthMiddleware(deps.Tokens, ChatScope))
	} else {
		log.Warn("JWT_SECRET not set, API is unauthenticated")
	}
	if deps.Limiter != nil {
		guards = append(guards, deps.Limiter.RateLimitMiddleware())
	}

	api.NewChatHandler(deps.Workflows, deps.Usage).RegisterRoutes(router.Group("/api/v1"), guards...)

	return &Server{
		router: router,
		log:    log,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, letting in-flight turns finish
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
