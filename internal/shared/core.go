// File: internal/shared/core.go
package shared

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the authenticated actor handed to downstream handlers.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// TokenVerifier turns a bearer token into an Identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() string
	GetRole() string
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken, ttl time.Duration) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims structure
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// ExternalIdentity is what a third-party identity provider vouches for.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// UserProvisioner resolves (or creates) the local user behind a verified token.
// The returned Identity carries the stored role, not the one claimed by the token.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, claimed Identity) (*Identity, error)
	ProvisionExternalUser(ctx context.Context, ext ExternalIdentity) (*Identity, error)
}
