// File: internal/user/handler.go
package user

import (
	"campus_lostfound_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for user operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	userGroup := router.Group("/users", authMW)
	{
		userGroup.GET("/me", h.getMe)
		userGroup.PUT("/me", h.updateMe)

		adminGroup := userGroup.Group("/admin", adminRoleMW)
		{
			adminGroup.GET("", h.listUsers)
			adminGroup.PATCH("/:id/role", h.setRole)
		}
	}
}

func (h *Handler) getMe(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	usr, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", usr)
}

func (h *Handler) updateMe(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update profile: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", usr)
}

func (h *Handler) listUsers(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	filter := ListFilter{Role: c.Query("role"), Query: c.Query("q")}

	users, pagination, err := h.service.ListUsers(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Users retrieved successfully.", users, pagination)
}

func (h *Handler) setRole(c *gin.Context) {
	actorID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	targetID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, err := h.service.SetRole(c.Request.Context(), actorID, targetID, req.Role)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User role updated successfully.", usr)
}
