// File: internal/notification/repository.go
package notification

import (
	"context"
	"errors"
	"fmt"

	"campus_lostfound_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	GetByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	FindByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

func (r *GORMRepository) Create(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByUserID retrieves a page of a user's notifications, newest first.
func (r *GORMRepository) GetByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	var notifications []Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting notifications for user %s failed: %w", userID, err)
	}

	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(common.Offset(page, pageSize)).
		Find(&notifications).Error
	if err != nil {
		return nil, nil, fmt.Errorf("fetching notifications for user %s failed: %w", userID, err)
	}
	return notifications, common.NewPagination(total, page, pageSize), nil
}

func (r *GORMRepository) FindByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	var notification Notification
	err := r.db.WithContext(ctx).First(&notification, "id = ?", notificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Notification not found.")
		}
		return nil, fmt.Errorf("failed to find notification %s: %w", notificationID, err)
	}
	return &notification, nil
}

func (r *GORMRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications for user %s failed: %w", userID, err)
	}
	return count, nil
}

// MarkAsRead flips the read flag. Marking an already-read notification is a no-op.
func (r *GORMRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", notificationID).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification %s as read: %w", notificationID, err)
	}
	return nil
}

// MarkAllAsRead marks all unread notifications for a user as read and returns how many changed.
func (r *GORMRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read for user %s: %w", userID, result.Error)
	}
	return result.RowsAffected, nil
}
