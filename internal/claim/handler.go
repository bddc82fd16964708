// File: internal/claim/handler.go
package claim

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	claims := router.Group("/claim", authMW)
	{
		claims.POST("/", h.submit)
		claims.GET("/mine", h.listMine)
		claims.GET("/", adminRoleMW, h.listAll)
		claims.PATCH("/:id/status", adminRoleMW, h.setStatus)
	}
}

func (h *Handler) submit(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req SubmitRequest
	var proof *multipart.FileHeader
	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			h.logger.Warn("Submit claim: invalid form", zap.Error(err))
			common.RespondWithError(c, common.BindingError(err))
			return
		}
		fh, err := c.FormFile("proofImage")
		switch {
		case err == nil:
			proof = fh
		case !errors.Is(err, http.ErrMissingFile):
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read the proof image."))
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Submit claim: invalid body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}

	ref, err := domain.ParseItemRef(req.ItemID, req.ItemType)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	claim, err := h.service.Submit(c.Request.Context(), userID, ref, req, proof)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Claim submitted successfully.", claim)
}

func (h *Handler) listMine(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	claims, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Claims retrieved successfully.", claims)
}

func (h *Handler) listAll(c *gin.Context) {
	var filter ListFilter
	if raw := c.Query("status"); raw != "" {
		filter.Status = Status(strings.ToLower(raw))
		if !filter.Status.Valid() {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid status filter."))
			return
		}
	}
	page, pageSize := common.GetPaginationParams(c)
	claims, pagination, err := h.service.ListAll(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Claims retrieved successfully.", claims, pagination)
}

func (h *Handler) setStatus(c *gin.Context) {
	reviewerID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	claimID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	claim, err := h.service.SetStatus(c.Request.Context(), reviewerID, claimID, Status(req.Status))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Claim status updated successfully.", claim)
}
