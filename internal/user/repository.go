// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus_lostfound_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]User, *common.Pagination, error)
	FindIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Email = normalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("User with this email or identity already exists.")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *gormRepository) findOne(ctx context.Context, notFound string, query interface{}, args ...interface{}) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where(query, args...).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails(notFound)
		}
		return nil, err
	}
	return &userModel, nil
}

func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "User not found with this email.", "email = ?", normalizeEmail(email))
}

func (r *gormRepository) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error) {
	return r.findOne(ctx, "User not found with this Firebase UID.", "firebase_uid = ?", firebaseUID)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, "User not found with this ID.", "id = ?", id)
}

// Update modifies an existing user record in the database.
func (r *gormRepository) Update(ctx context.Context, user *User) error {
	user.Email = normalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("Update failed: email or identity already linked to another user.")
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]User, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("(LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting users failed: %w", err)
	}

	var users []User
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset(common.Offset(page, pageSize)).
		Find(&users).Error
	if err != nil {
		return nil, nil, fmt.Errorf("listing users failed: %w", err)
	}
	return users, common.NewPagination(total, page, pageSize), nil
}

func (r *gormRepository) FindIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&User{}).Where("role = ?", role).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing %s ids failed: %w", role, err)
	}
	return ids, nil
}
