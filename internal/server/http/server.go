// Package http exposes AuthService as a JSON API over gin.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/server/models"
	"github.com/dmitrijs2005/discbaboons/internal/server/services"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type authService interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*tokens.Pair, error)
	ForgotPassword(ctx context.Context, req services.ForgotPasswordRequest) (string, error)
	ChangePassword(ctx context.Context, req services.ChangePasswordRequest) (string, error)
	ForgotUsername(ctx context.Context, email string) (string, error)
	Me(ctx context.Context, userID int64) (*models.PublicUser, error)
}

type accessTokenParser interface {
	ParseAccessToken(token string) (*tokens.AccessClaims, error)
}

type HTTPServer struct {
	address     string
	auth        authService
	tokens      accessTokenParser
	logger      logging.Logger
	serviceName string
	engine      *gin.Engine
}

func NewHTTPServer(addr string, l logging.Logger, as authService, tp accessTokenParser, serviceName string) *HTTPServer {
	s := &HTTPServer{
		address:     addr,
		auth:        as,
		tokens:      tp,
		logger:      l.With("module", "http_server"),
		serviceName: serviceName,
	}
	s.engine = s.router()
	return s
}

// Handler returns the routed engine.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) router() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.serviceName))
	r.Use(RequestLogger(s.logger))

	r.GET("/healthz", s.Health)

	api := r.Group("/api/auth")
	{
		api.POST("/login", s.Login)
		api.POST("/refresh", s.Refresh)
		api.POST("/forgot-password", s.ForgotPassword)
		api.POST("/change-password", s.ChangePassword)
		api.POST("/forgot-username", s.ForgotUsername)
		api.GET("/me", s.requireAccessToken, s.Me)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
