// File: internal/auth/service.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWTService validates HS256 access tokens. Issuance is kept for tooling and tests;
// end-user login lives with the external identity provider.
type JWTService struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg *config.Config, logger *zap.Logger) *JWTService {
	return &JWTService{cfg: cfg, logger: logger.Named("JWTService")}
}

// Enabled reports whether a signing key is configured.
func (s *JWTService) Enabled() bool {
	return s.cfg.JWTSecretKey != ""
}

func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(ttl)

	claims := &shared.Claims{
		UserID: userData.GetID(),
		Email:  userData.GetEmail(),
		Role:   userData.GetRole(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.JWTIssuer,
			Subject:   userData.GetID().String(),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign access token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken validates a JWT token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	if !s.Enabled() {
		return nil, errors.New("jwt verification is not configured")
	}
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		s.logger.Debug("Failed to validate token", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
