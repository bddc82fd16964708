// File: internal/item/handler.go
package item

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Handler serves the item catalog.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	items := router.Group("/items", authMW)
	{
		items.GET("", h.browse)
		items.GET("/mine", h.listMine)
		items.GET("/:id", h.getItem)
		items.POST("/lost", h.create(domain.KindLost))
		items.POST("/found", h.create(domain.KindFound))
		items.DELETE("/:id", h.deleteItem)

		admin := items.Group("/admin", adminRoleMW)
		{
			admin.GET("/all", h.adminList)
			admin.PATCH("/:id", h.adminUpdate)
		}
	}
}

func filterFromQuery(c *gin.Context) (BrowseFilter, error) {
	kind, err := domain.ParseItemKind(firstNonBlank(c.Query("kind"), c.Query("type")))
	if err != nil {
		return BrowseFilter{}, common.ErrBadRequest.WithDetails(err.Error())
	}
	filter := BrowseFilter{Kind: kind, Query: c.Query("q")}
	if status := c.Query("status"); status != "" {
		filter.Status = domain.ItemStatus(strings.ToLower(status))
		if !filter.Status.Valid() {
			return BrowseFilter{}, common.ErrBadRequest.WithDetails("Invalid status filter.")
		}
	}
	if category := c.Query("category"); category != "" {
		filter.CategorySlug = slug.Make(category)
	}
	return filter, nil
}

func (h *Handler) browse(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	page, pageSize := common.GetPaginationParams(c)
	items, pagination, err := h.service.Browse(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Items retrieved successfully.", items, pagination)
}

func (h *Handler) listMine(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := common.GetPaginationParams(c)
	items, pagination, err := h.service.ListMine(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Your items retrieved successfully.", items, pagination)
}

func (h *Handler) getItem(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	ref, err := domain.ParseItemRef(c.Param("id"), c.Query("type"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	isAdmin := common.GetUserRoleFromContext(c) == common.RoleAdmin
	it, err := h.service.GetItem(c.Request.Context(), ref.ID, userID, isAdmin)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Item retrieved successfully.", it)
}

func (h *Handler) create(kind domain.ItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := common.RequireUserID(c)
		if !ok {
			return
		}

		var req CreateItemRequest
		var image *multipart.FileHeader
		if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
			if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
				h.logger.Warn("Create item: invalid form", zap.Error(err))
				common.RespondWithError(c, common.BindingError(err))
				return
			}
			fh, err := c.FormFile("image")
			switch {
			case err == nil:
				image = fh
			case !errors.Is(err, http.ErrMissingFile):
				common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read the uploaded image."))
				return
			}
		} else if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("Create item: invalid body", zap.Error(err))
			common.RespondWithError(c, common.BindingError(err))
			return
		}

		it, err := h.service.CreateItem(c.Request.Context(), userID, kind, req, image)
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		common.RespondCreated(c, "Item reported successfully.", it)
	}
}

func (h *Handler) deleteItem(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	ref, err := domain.ParseItemRef(c.Param("id"), "")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), ref.ID, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Item deleted successfully.", nil)
}

func (h *Handler) adminList(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if approval := c.Query("approvalStatus"); approval != "" {
		filter.ApprovalStatus = domain.ApprovalStatus(strings.ToLower(approval))
		if !filter.ApprovalStatus.Valid() {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid approvalStatus filter."))
			return
		}
	}
	page, pageSize := common.GetPaginationParams(c)
	items, pagination, err := h.service.AdminList(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Items retrieved successfully.", items, pagination)
}

func (h *Handler) adminUpdate(c *gin.Context) {
	actorID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	ref, err := domain.ParseItemRef(c.Param("id"), "")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	var req AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	it, err := h.service.AdminUpdate(c.Request.Context(), actorID, ref.ID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Item updated successfully.", it)
}
