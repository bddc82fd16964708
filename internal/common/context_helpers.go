// File: internal/common/context_helpers.go
package common

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetTokenFromContext retrieves the bearer token from the Authorization header.
// Routes mounted behind AllowQueryToken fall back to the token query parameter.
// Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		if c.GetBool(QueryTokenAllowedKey) {
			return c.Query(TokenQueryParam)
		}
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// AllowQueryToken lets the following auth middleware read ?token=. It must run before it.
func AllowQueryToken(c *gin.Context) {
	c.Set(QueryTokenAllowedKey, true)
	c.Next()
}

// GetUserIDFromContext retrieves the user ID from the Gin context.
// Returns uuid.Nil if not found or not a UUID.
func GetUserIDFromContext(c *gin.Context) uuid.UUID {
	val, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// GetUserRoleFromContext retrieves the user role from the Gin context.
func GetUserRoleFromContext(c *gin.Context) string {
	val, exists := c.Get(UserRoleKey)
	if !exists {
		return ""
	}
	role, ok := val.(string)
	if !ok {
		return ""
	}
	return role
}

// GetUserEmailFromContext retrieves the authenticated user's email.
func GetUserEmailFromContext(c *gin.Context) string {
	return c.GetString(UserEmailKey)
}

// RequireUserID returns the authenticated user ID or responds 401 and returns false.
func RequireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID := GetUserIDFromContext(c)
	if userID == uuid.Nil {
		RespondWithError(c, ErrUnauthorized.WithDetails("User ID not found in token."))
		return uuid.Nil, false
	}
	return userID, true
}

// ParseUUIDParam parses a path parameter as a UUID or responds 400 and returns false.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondWithError(c, ErrBadRequest.WithDetails("Invalid "+name+" format."))
		return uuid.Nil, false
	}
	return id, true
}
