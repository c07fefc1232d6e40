package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health always answers 200 with the hub's last published counts.
func (h *Handler) Health(c *gin.Context) {
	stats := h.Hub.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"connections": stats.Connections,
		"rooms":       stats.Rooms,
	})
}
