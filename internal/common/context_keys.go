// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// TokenQueryParam carries the token for WebSocket upgrades, where browsers cannot set headers.
	TokenQueryParam = "token"
	// QueryTokenAllowedKey marks routes that accept TokenQueryParam
	QueryTokenAllowedKey = "queryTokenAllowed"
	// UserIDKey is the context key for storing the authenticated user's ID
	UserIDKey = "userID"
	// UserEmailKey is the context key for storing the authenticated user's email
	UserEmailKey = "userEmail"
	// UserRoleKey is the context key for storing the authenticated user's role
	UserRoleKey = "userRole"
	// LoggerKey holds a request-scoped *zap.Logger
	LoggerKey = "logger"
)

// Roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)
