// Package httpapi exposes the public HTTP endpoint: authentication routes,
// the refrigerator item routes behind the access-token middleware, and the
// JSON error envelope shared by all of them.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/myrecipe/internal/logging"
	"github.com/dmitrijs2005/myrecipe/internal/server/auth"
	"github.com/dmitrijs2005/myrecipe/internal/server/services"
	"github.com/gin-gonic/gin"
)

// shutdownTimeout bounds how long in-flight requests may run after the stop
// signal.
const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address string
	logger  logging.Logger
	tokens  *auth.Manager
	auth    *services.AuthService
	items   *services.ItemService
}

func NewHTTPServer(a string, l logging.Logger, tokens *auth.Manager, as *services.AuthService, is *services.ItemService) (*HTTPServer, error) {
	return &HTTPServer{
		address: a,
		logger:  l.With("module", "http_server"),
		tokens:  tokens,
		auth:    as,
		items:   is,
	}, nil
}

// router builds the gin engine with all routes attached. Split out from Run
// so tests can drive it with httptest.
func (s *HTTPServer) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.authenticate())

	r.GET("/health", s.handleHealth)

	ag := r.Group("/auth")
	{
		ag.POST("/signup", s.handleSignup)
		ag.POST("/login", s.handleLogin)
		ag.POST("/refresh", s.handleRefresh)
		ag.POST("/logout", s.handleLogout)
	}

	rg := r.Group("/refrigerator", s.requireAuth())
	{
		rg.GET("/item", s.handleListItems)
		rg.POST("/item", s.handleAddItem)
		rg.PATCH("/item/:id", s.handleUpdateItem)
		rg.DELETE("/item/:id", s.handleDeleteItem)
	}

	return r
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
