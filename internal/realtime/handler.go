// File: internal/realtime/handler.go
package realtime

import (
	"campus_lostfound_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger.Named("RealtimeHandler")}
}

// RegisterRoutes mounts GET /ws. The token may be passed as ?token= since browsers
// cannot attach headers to a WebSocket handshake.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/ws", common.AllowQueryToken, authMW, h.connect)
}

func (h *Handler) connect(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, userID); err != nil {
		// The upgrader has already written an HTTP error.
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
	}
}
