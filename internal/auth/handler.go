// File: internal/auth/handler.go
package auth

import (
	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/firebase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes token introspection and revocation.
type Handler struct {
	jwt       *JWTService
	firebase  *firebase.FirebaseService
	blocklist TokenBlocklist
	logger    *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(jwtService *JWTService, firebaseService *firebase.FirebaseService, blocklist TokenBlocklist, logger *zap.Logger) *Handler {
	return &Handler{
		jwt:       jwtService,
		firebase:  firebaseService,
		blocklist: blocklist,
		logger:    logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth", authMW)
	{
		authGroup.GET("/me", h.me)
		authGroup.POST("/logout", h.logout)
	}
}

type identityResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (h *Handler) me(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	common.RespondOK(c, "Authenticated.", identityResponse{
		UserID: userID.String(),
		Email:  common.GetUserEmailFromContext(c),
		Role:   common.GetUserRoleFromContext(c),
	})
}

// logout revokes the presented token. Local JWTs go on the blocklist;
// Firebase sessions have their refresh tokens revoked upstream.
func (h *Handler) logout(c *gin.Context) {
	token := common.GetTokenFromContext(c)

	if h.jwt != nil && h.jwt.Enabled() {
		if claims, err := h.jwt.ValidateToken(token); err == nil {
			if claims.ExpiresAt != nil {
				h.blocklist.Add(claims.ID, claims.ExpiresAt.Time)
			}
			common.RespondNoContent(c)
			return
		}
	}

	if h.firebase != nil {
		ext, err := h.firebase.VerifyIDToken(c.Request.Context(), token)
		if err == nil {
			if err := h.firebase.RevokeRefreshTokens(c.Request.Context(), ext.Subject); err != nil {
				common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Could not revoke the session with the identity provider."))
				return
			}
			common.RespondNoContent(c)
			return
		}
	}

	common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Token could not be revoked."))
}
