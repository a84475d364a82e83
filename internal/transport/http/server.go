package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pavelsokov/talkroom-server/internal/auth"
	"github.com/pavelsokov/talkroom-server/internal/config"
	"github.com/pavelsokov/talkroom-server/internal/core"
	"github.com/pavelsokov/talkroom-server/internal/store"
)

// NewServer builds the HTTP server: REST credential exchange, health
// check and the WebSocket chat endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, users store.UserStore, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := NewAPIHandlers(authService, logger)

	router.GET("/healthz", healthHandler)
	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)
	router.POST("/api/guest", api.Guest)

	authed := router.Group("/api")
	authed.Use(AuthMiddleware(authService, logger))
	authed.PUT("/profile", api.UpdateProfile)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, users, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
