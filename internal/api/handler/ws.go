package handler

import (
	"chessrelay/backend/internal/chathub"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.Cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}
}

// ServeWebSocket upgrades the request and hands the new client to the hub.
// The user id comes from a valid token. An unsigned ?userId= is only honoured when
// the deployment trusts it; otherwise the connection stays anonymous to the profile store.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	id := identity{Username: c.Query("username")}
	if queryID := c.Query("userId"); queryID != "" {
		if h.Cfg.TrustQueryUserID {
			id.UserID = queryID
		} else {
			h.log.Debug("ws.untrusted_user_id", "remote", c.ClientIP())
		}
	}

	if raw := c.Query("token"); raw != "" {
		claimed, err := parseToken([]byte(h.Cfg.JWTSecret), raw)
		if err != nil {
			h.log.Warn("ws.bad_token", "remote", c.ClientIP(), "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
		id.UserID = claimed.UserID
		if claimed.Username != "" {
			id.Username = claimed.Username
		}
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Warn("ws.upgrade", "remote", c.ClientIP(), "err", err)
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Hub, id.UserID, id.Username, h.log)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
