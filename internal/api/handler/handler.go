package handler

import (
	"chessrelay/backend/internal/chathub"
	"chessrelay/backend/internal/config"
	"chessrelay/backend/pkg/metrics"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Handler holds what the HTTP surface needs from the rest of the relay.
type Handler struct {
	Hub *chathub.ManagerService
	Cfg config.Config

	log *slog.Logger
}

func NewHandler(hub *chathub.ManagerService, cfg config.Config, logger *slog.Logger) *Handler {
	return &Handler{Hub: hub, Cfg: cfg, log: logger}
}

// Router builds the gin engine and wraps it in the CORS policy.
func (h *Handler) Router() http.Handler {
	if h.Cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", h.ServeWebSocket)
	r.GET("/health", h.Health)
	r.GET("/token", h.GetGuestToken)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	opts := cors.Options{
		AllowedOrigins:   h.Cfg.CORSAllow,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowCredentials: !h.Cfg.AllowsAnyOrigin(),
	}
	if h.Cfg.AllowsAnyOrigin() {
		opts.AllowedOrigins = []string{"*"}
		if h.Cfg.Env == "prod" {
			h.log.Warn("cors.wide_open", "hint", "set CORS_ALLOW to the frontend origin")
		}
	}
	return cors.New(opts).Handler(r)
}
