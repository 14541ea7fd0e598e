// Package httpapi exposes the application over HTTP: the session cookie
// authorization gate, the JSON handlers for identity and post interaction,
// and the federated login flow.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogify-app/blogify/internal/logging"
	"github.com/blogify-app/blogify/internal/server/auth"
	"github.com/blogify-app/blogify/internal/server/config"
	"github.com/blogify-app/blogify/internal/server/services"
)

type Server struct {
	address       string
	cookieName    string
	tokenTTL      time.Duration
	engine        *gin.Engine
	logger        logging.Logger
	tokens        *auth.TokenService
	users         *services.UserService
	posts         *services.PostService
	notifications *services.NotificationService
	google        *googleOAuth
}

func NewServer(cfg *config.Config, l logging.Logger, tokens *auth.TokenService,
	us *services.UserService, ps *services.PostService, ns *services.NotificationService) *Server {

	s := &Server{
		address:       cfg.EndpointAddrHTTP,
		cookieName:    cfg.SessionCookieName,
		tokenTTL:      cfg.SessionTokenValidityDuration,
		logger:        l.With("module", "httpapi"),
		tokens:        tokens,
		users:         us,
		posts:         ps,
		notifications: ns,
		google:        newGoogleOAuth(cfg),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	s.engine = engine
	s.routes()

	return s
}

func (s *Server) routes() {
	// Every request passes the gate; the gate itself never rejects.
	s.engine.Use(s.Authenticate())

	user := s.engine.Group("/user")
	{
		user.POST("/signup", s.handleSignup)
		user.GET("/login", s.handleLoginForm)
		user.POST("/login", s.handleLogin)
		user.GET("/logout", s.handleLogout)
		user.GET("/me", s.handleMe)
		user.POST("/profile", s.RequireAuthenticated(), s.handleUpdateProfile)
		user.GET("/notifications", s.RequireAuthenticated(), s.handleListNotifications)
		user.POST("/notifications/mark-all-read", s.RequireAuthenticated(), s.handleMarkAllRead)
	}

	if s.google != nil {
		authGroup := s.engine.Group("/auth")
		authGroup.GET("/google", s.handleGoogleLogin)
		authGroup.GET("/google/callback", s.handleGoogleCallback)
	}

	posts := s.engine.Group("/posts")
	{
		posts.GET("", s.handleListPosts)
		posts.GET("/:id", s.handleGetPost)
		posts.POST("", s.RequireAuthenticated(), s.handleCreatePost)
		posts.PUT("/:id", s.RequireAuthenticated(), s.handleUpdatePost)
		posts.DELETE("/:id", s.RequireAuthenticated(), s.handleDeletePost)
		posts.POST("/:id/like", s.RequireAuthenticated(), s.handleToggleLike)
		posts.POST("/:id/comments", s.RequireAuthenticated(), s.handleAddComment)
	}
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.engine,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = srv.Shutdown(context.Background())
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
