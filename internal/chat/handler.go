// File: internal/chat/handler.go
package chat

import (
	"net/http"
	"strings"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts /chats and /messages. messageLimitMW may be nil.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, messageLimitMW gin.HandlerFunc) {
	chats := router.Group("/chats", authMW)
	{
		chats.POST("/", h.getOrCreate)
		chats.GET("/", h.listMine)
		chats.GET("/:id", h.getOne)
	}

	send := []gin.HandlerFunc{h.postMessage}
	if messageLimitMW != nil {
		send = append([]gin.HandlerFunc{messageLimitMW}, send...)
	}
	messages := router.Group("/messages", authMW)
	{
		messages.GET("/:chatId", h.listMessages)
		messages.POST("/:chatId", send...)
	}
}

func (h *Handler) getOrCreate(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	var body CreateChatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	ref, err := domain.ParseItemRef(body.ItemID, body.ItemType)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	var ownerID *uuid.UUID
	if raw := strings.TrimSpace(body.OwnerID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid ownerId format."))
			return
		}
		ownerID = &parsed
	}

	chat, created, err := h.service.GetOrCreate(c.Request.Context(), userID, ref, ownerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if created {
		common.RespondCreated(c, "Chat created.", chat)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "Chat retrieved.", chat)
}

func (h *Handler) listMine(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	chats, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chats retrieved successfully.", chats)
}

func (h *Handler) getOne(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	chatID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	chat, err := h.service.GetOne(c.Request.Context(), chatID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chat retrieved successfully.", chat)
}

func (h *Handler) listMessages(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	chatID, ok := common.ParseUUIDParam(c, "chatId")
	if !ok {
		return
	}
	page, pageSize := common.GetPaginationParams(c)
	messages, pagination, err := h.service.ListMessages(c.Request.Context(), chatID, userID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Messages retrieved successfully.", messages, pagination)
}

func (h *Handler) postMessage(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	chatID, ok := common.ParseUUIDParam(c, "chatId")
	if !ok {
		return
	}
	var body SendMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	msg, err := h.service.PostMessage(c.Request.Context(), chatID, userID, body.Text)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Message sent.", msg)
}
