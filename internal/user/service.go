// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the user directory operations.
type Service interface {
	shared.UserProvisioner
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter, page, pageSize int) ([]User, *common.Pagination, error)
	SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*User, error)
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo   Repository
	cfg    *config.Config
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(repo Repository, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("UserService"),
	}
}

// emailAllowed checks the institutional domain. An empty configured domain allows any address.
func (s *ServiceImplementation) emailAllowed(email string) bool {
	domain := strings.TrimPrefix(s.cfg.AllowedEmailDomain, "@")
	if domain == "" {
		return true
	}
	email = normalizeEmail(email)
	return strings.HasSuffix(email, "@"+domain) || strings.HasSuffix(email, "."+domain)
}

func toIdentity(u *User) *shared.Identity {
	return &shared.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// EnsureUser returns the stored identity for a locally issued token, creating the
// user on first contact. The stored role wins over the role claimed by the token.
func (s *ServiceImplementation) EnsureUser(ctx context.Context, claimed shared.Identity) (*shared.Identity, error) {
	existing, err := s.repo.FindByID(ctx, claimed.UserID)
	if err == nil {
		return toIdentity(existing), nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Failed to load user for token", zap.Error(err), zap.String("user_id", claimed.UserID.String()))
		return nil, common.ErrInternalServer
	}

	if strings.TrimSpace(claimed.Email) == "" {
		return nil, common.ErrUnauthorized.WithDetails("Token carries no email address.")
	}
	if !s.emailAllowed(claimed.Email) {
		return nil, common.ErrForbidden.WithDetails("Only institutional email addresses may use this service.")
	}

	role := common.RoleStudent
	if claimed.Role == common.RoleAdmin {
		role = common.RoleAdmin
	}
	now := time.Now()
	newUser := &User{
		BaseModel:   common.BaseModel{ID: claimed.UserID},
		Email:       claimed.Email,
		DisplayName: displayNameFromEmail(claimed.Email),
		Role:        role,
		IsVerified:  true,
		LastLoginAt: &now,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Lost a race with a concurrent first request, or the email belongs to another account.
			if again, findErr := s.repo.FindByID(ctx, claimed.UserID); findErr == nil {
				return toIdentity(again), nil
			}
			return nil, common.ErrConflict.WithDetails("Email is already linked to another account.")
		}
		s.logger.Error("Failed to provision user", zap.Error(err), zap.String("email", claimed.Email))
		return nil, common.ErrInternalServer
	}
	s.logger.Info("Provisioned user from token", zap.String("user_id", newUser.ID.String()))
	return toIdentity(newUser), nil
}

// ProvisionExternalUser resolves a Firebase identity by UID, then by email (linking the UID), else creates the user.
func (s *ServiceImplementation) ProvisionExternalUser(ctx context.Context, ext shared.ExternalIdentity) (*shared.Identity, error) {
	if ext.Subject == "" {
		return nil, common.ErrUnauthorized.WithDetails("Identity token has no subject.")
	}

	existing, err := s.repo.FindByFirebaseUID(ctx, ext.Subject)
	if err == nil {
		return toIdentity(existing), nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Failed to look up user by Firebase UID", zap.Error(err))
		return nil, common.ErrInternalServer
	}

	if strings.TrimSpace(ext.Email) == "" {
		return nil, common.ErrUnauthorized.WithDetails("Identity token carries no email address.")
	}
	if !s.emailAllowed(ext.Email) {
		return nil, common.ErrForbidden.WithDetails("Only institutional email addresses may use this service.")
	}

	uid := ext.Subject
	now := time.Now()
	byEmail, err := s.repo.FindByEmail(ctx, ext.Email)
	switch {
	case err == nil:
		byEmail.FirebaseUID = &uid
		byEmail.IsVerified = byEmail.IsVerified || ext.EmailVerified
		byEmail.LastLoginAt = &now
		if err := s.repo.Update(ctx, byEmail); err != nil {
			if _, ok := common.IsAPIError(err); ok {
				return nil, err
			}
			s.logger.Error("Failed to link Firebase UID", zap.Error(err), zap.String("user_id", byEmail.ID.String()))
			return nil, common.ErrInternalServer
		}
		s.logger.Info("Linked Firebase identity to existing user", zap.String("user_id", byEmail.ID.String()))
		return toIdentity(byEmail), nil
	case !errors.Is(err, common.ErrNotFound):
		s.logger.Error("Failed to look up user by email", zap.Error(err))
		return nil, common.ErrInternalServer
	}

	name := strings.TrimSpace(ext.DisplayName)
	if name == "" {
		name = displayNameFromEmail(ext.Email)
	}
	newUser := &User{
		Email:       ext.Email,
		DisplayName: name,
		Role:        common.RoleStudent,
		IsVerified:  ext.EmailVerified,
		FirebaseUID: &uid,
		LastLoginAt: &now,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to provision Firebase user", zap.Error(err))
		return nil, common.ErrInternalServer
	}
	s.logger.Info("Provisioned user from identity provider", zap.String("user_id", newUser.ID.String()), zap.String("provider", ext.Provider))
	return toIdentity(newUser), nil
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to load user", zap.Error(err), zap.String("user_id", id.String()))
		return nil, common.ErrInternalServer
	}
	return u, nil
}

func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, common.NewValidationAPIError(map[string]string{"displayName": "The displayName field may not be blank."})
		}
		u.DisplayName = name
	}
	if req.ContactNumber != nil {
		u.ContactNumber = strings.TrimSpace(*req.ContactNumber)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to update profile", zap.Error(err), zap.String("user_id", id.String()))
		return nil, common.ErrInternalServer
	}
	return u, nil
}

func (s *ServiceImplementation) ListUsers(ctx context.Context, filter ListFilter, page, pageSize int) ([]User, *common.Pagination, error) {
	users, pagination, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve users.")
	}
	return users, pagination, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *ServiceImplementation) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*User, error) {
	if role != common.RoleStudent && role != common.RoleAdmin {
		return nil, common.ErrBadRequest.WithDetails("Role must be student or admin.")
	}
	if actorID == targetID && role != common.RoleAdmin {
		return nil, common.ErrBadRequest.WithDetails("Admins cannot remove their own admin role.")
	}
	u, err := s.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if u.Role == role {
		return u, nil
	}
	u.Role = role
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to update role", zap.Error(err), zap.String("user_id", targetID.String()))
		return nil, common.ErrInternalServer
	}
	s.logger.Info("User role changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", targetID.String()),
		zap.String("role", role),
	)
	return u, nil
}

func (s *ServiceImplementation) AdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.FindIDsByRole(ctx, common.RoleAdmin)
	if err != nil {
		s.logger.Error("Failed to list admins", zap.Error(err))
		return nil, common.ErrInternalServer
	}
	return ids, nil
}

func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(normalizeEmail(email), "@")
	return local
}
