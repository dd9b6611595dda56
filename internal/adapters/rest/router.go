package rest

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/counselpoint/gateway/internal/adapters/signal"
	"github.com/counselpoint/gateway/internal/config"
)

// SetupRouter wires the websocket endpoint and the credential-issuer
// REST surface. The websocket handshake carries its own identity claims
// checked against the backing record, so only the REST routes sit behind
// the bearer-token middleware.
func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	ws *signal.SessionWSController,
	h *Handlers,
	tokens *TokenService,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "rest").Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/session", func(c *gin.Context) {
		ws.HandleSession(ctx, c)
	})

	authed := api.Group("", AuthMiddleware(tokens))
	authed.POST("/appointments/:id/join", h.AppointmentJoin)
	authed.POST("/rooms", h.CreateRoom)
	authed.POST("/rooms/:id/join", h.JoinRoom)
	authed.POST("/rooms/:id/end", h.EndRoom)
	authed.GET("/sessions", h.ListSessions)

	return r
}
