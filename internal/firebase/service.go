// File: internal/firebase/service.go
package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/shared"
)

// FirebaseService verifies Firebase ID tokens for clients that sign in through Firebase.
type FirebaseService struct {
	authClient *auth.Client
	logger     *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK.
// It returns (nil, nil) when no service account is configured, since Firebase is optional.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	logger = logger.Named("FirebaseService")
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Info("Firebase service account key path not configured; Firebase ID tokens will not be accepted.")
		return nil, nil
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &FirebaseService{authClient: authClient, logger: logger}, nil
}

// VerifyIDToken verifies a Firebase ID token and returns the identity it vouches for.
func (s *FirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*shared.ExternalIdentity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Debug("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	return identityFromClaims(token.UID, token.Claims), nil
}

// RevokeRefreshTokens revokes all refresh tokens for a given Firebase user.
func (s *FirebaseService) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}

func identityFromClaims(uid string, claims map[string]interface{}) *shared.ExternalIdentity {
	ext := &shared.ExternalIdentity{Provider: "firebase", Subject: uid}
	if email, ok := claims["email"].(string); ok {
		ext.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		ext.DisplayName = name
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		ext.EmailVerified = verified
	}
	return ext
}
