// File: internal/auth/verifier.go
package auth

import (
	"context"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/firebase"
	"campus_lostfound_backend/internal/shared"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// IDTokenVerifier is the subset of the Firebase client the verifier needs.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*shared.ExternalIdentity, error)
}

const identityCacheTTL = time.Minute

// Verifier accepts locally signed JWTs and, when configured, Firebase ID tokens.
// Either way the caller ends up with the identity of a provisioned local user.
type Verifier struct {
	jwt        *JWTService
	idTokens   IDTokenVerifier
	users      shared.UserProvisioner
	blocklist  TokenBlocklist
	identities *cache.Cache
	logger     *zap.Logger
}

// NewVerifier wires the token verifiers together.
func NewVerifier(
	jwtService *JWTService,
	firebaseService *firebase.FirebaseService,
	users shared.UserProvisioner,
	blocklist TokenBlocklist,
	logger *zap.Logger,
) *Verifier {
	v := &Verifier{
		jwt:        jwtService,
		users:      users,
		blocklist:  blocklist,
		identities: cache.New(identityCacheTTL, 5*time.Minute),
		logger:     logger.Named("TokenVerifier"),
	}
	if firebaseService != nil {
		v.idTokens = firebaseService
	}
	return v
}

// VerifyToken implements shared.TokenVerifier.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*shared.Identity, error) {
	if token == "" {
		return nil, common.ErrUnauthorized.WithDetails("Bearer token is required.")
	}

	if v.jwt != nil && v.jwt.Enabled() {
		claims, err := v.jwt.ValidateToken(token)
		if err == nil {
			if v.blocklist != nil && v.blocklist.Contains(claims.ID) {
				return nil, common.ErrUnauthorized.WithDetails("Token has been revoked.")
			}
			return v.ensure(ctx, shared.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
		}
		if v.idTokens == nil {
			return nil, common.ErrUnauthorized.WithDetails("Invalid or expired token.")
		}
	}

	if v.idTokens != nil {
		ext, err := v.idTokens.VerifyIDToken(ctx, token)
		if err != nil {
			return nil, common.ErrUnauthorized.WithDetails("Invalid or expired token.")
		}
		return v.users.ProvisionExternalUser(ctx, *ext)
	}

	return nil, common.ErrUnauthorized.WithDetails("No token verifier is configured.")
}

func (v *Verifier) ensure(ctx context.Context, claimed shared.Identity) (*shared.Identity, error) {
	key := claimed.UserID.String()
	if cached, ok := v.identities.Get(key); ok {
		return cached.(*shared.Identity), nil
	}
	identity, err := v.users.EnsureUser(ctx, claimed)
	if err != nil {
		return nil, err
	}
	v.identities.Set(key, identity, cache.DefaultExpiration)
	return identity, nil
}
