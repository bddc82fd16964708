// File: internal/connection/handler.go
package connection

import (
	"net/http"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts /connections. messageLimitMW throttles message posting and may be nil.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, messageLimitMW gin.HandlerFunc) {
	connections := router.Group("/connections", authMW)
	{
		connections.POST("/request", h.withLimit(messageLimitMW, h.initiate)...)
		connections.GET("/my-requests", h.listMine)
		connections.GET("/:id", h.getOne)
		connections.PUT("/:id/respond", h.respond)
		connections.POST("/:id/message", h.withLimit(messageLimitMW, h.postMessage)...)
	}
}

func (h *Handler) withLimit(limit gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if limit == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{limit, handler}
}

func (h *Handler) initiate(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	var body InitiateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Warn("Initiate connection: invalid body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	ref, err := domain.ParseItemRef(body.ItemID, body.ItemType)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	req, created, err := h.service.Initiate(c.Request.Context(), userID, InitiateInput{
		Item:         ref,
		Verification: body.Verification,
		Message:      body.TemplateMessage,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if created {
		common.RespondCreated(c, "Connection request sent.", req)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "Connection request updated.", req)
}

func (h *Handler) listMine(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	views, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Connection requests retrieved successfully.", views)
}

func (h *Handler) getOne(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	requestID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetOne(c.Request.Context(), requestID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Connection request retrieved successfully.", view)
}

func (h *Handler) respond(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	requestID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var body RespondRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	req, err := h.service.Respond(c.Request.Context(), requestID, userID, body.Action)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Connection request "+string(req.Status)+".", req)
}

func (h *Handler) postMessage(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	requestID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var body MessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	msg, err := h.service.PostMessage(c.Request.Context(), requestID, userID, body.Text)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Message sent.", msg)
}
