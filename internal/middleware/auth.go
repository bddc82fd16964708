// File: internal/middleware/auth.go
package middleware

import (
	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware authenticates the bearer token (header, or ?token= for WebSocket upgrades)
// and stores the resulting identity in the Gin context.
func AuthMiddleware(verifier shared.TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization token missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header must be 'Bearer <token>'."))
			return
		}

		identity, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			if _, ok := common.IsAPIError(err); !ok {
				logger.Error("Token verification failed unexpectedly", zap.Error(err))
			}
			common.RespondWithError(c, err)
			return
		}

		c.Set(common.UserIDKey, identity.UserID)
		c.Set(common.UserEmailKey, identity.Email)
		c.Set(common.UserRoleKey, identity.Role)

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user has one of the required roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
