// File: internal/notification/handler.go
package notification

import (
	"campus_lostfound_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for notification operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/notifications", authMW)
	group.GET("", h.getNotifications)
	group.GET("/unread-count", h.getUnreadCount)
	group.POST("/mark-all-read", h.markAllNotificationsAsRead)
	group.POST("/:id/read", h.markNotificationAsRead)
}

func (h *Handler) getNotifications(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := common.GetPaginationParams(c)

	notifications, pagination, err := h.service.GetNotificationsForUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Notifications retrieved successfully.", notifications, pagination)
}

func (h *Handler) getUnreadCount(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Unread notification count retrieved.", UnreadCountResponse{Count: count})
}

func (h *Handler) markNotificationAsRead(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	notificationID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkNotificationAsRead(c.Request.Context(), notificationID, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read successfully.", nil)
}

func (h *Handler) markAllNotificationsAsRead(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	count, err := h.service.MarkAllUserNotificationsAsRead(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "All notifications marked as read successfully.", gin.H{"updated": count})
}
