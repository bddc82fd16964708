// File: internal/notification/service.go
package notification

import (
	"context"
	"strings"

	"campus_lostfound_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pusher delivers realtime events to a user's open connections.
type Pusher interface {
	Push(userID uuid.UUID, event string, payload interface{})
}

// Service defines the notification operations.
type Service interface {
	CreateNotification(ctx context.Context, in CreateInput) (*Notification, error)
	// Notify creates a notification as a side effect; failures are logged, never returned.
	Notify(ctx context.Context, in CreateInput)
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Push(userID uuid.UUID, event string, payload interface{})
}

type ServiceImplementation struct {
	repo   Repository
	pusher Pusher
	logger *zap.Logger
}

// NewService creates a notification service. pusher may be nil.
func NewService(repo Repository, pusher Pusher, logger *zap.Logger) Service {
	return &ServiceImplementation{repo: repo, pusher: pusher, logger: logger.Named("NotificationService")}
}

func (s *ServiceImplementation) CreateNotification(ctx context.Context, in CreateInput) (*Notification, error) {
	if in.UserID == uuid.Nil {
		return nil, common.ErrBadRequest.WithDetails("Notification recipient is required.")
	}
	if !in.Type.Valid() {
		return nil, common.ErrBadRequest.WithDetails("Unknown notification type: " + string(in.Type))
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, common.ErrBadRequest.WithDetails("Notification title and message are required.")
	}

	n := &Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
		ClaimID: in.ClaimID,
	}
	if in.Item != nil {
		id, kind := in.Item.ID, in.Item.Kind
		n.ItemID = &id
		if kind != "" {
			n.ItemKind = &kind
		}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification", zap.Error(err), zap.String("user_id", in.UserID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not create notification.")
	}

	s.Push(n.UserID, EventNew, n)
	return n, nil
}

func (s *ServiceImplementation) Notify(ctx context.Context, in CreateInput) {
	if _, err := s.CreateNotification(ctx, in); err != nil {
		s.logger.Warn("Side-effect notification dropped",
			zap.Error(err),
			zap.String("user_id", in.UserID.String()),
			zap.String("type", string(in.Type)),
		)
	}
}

func (s *ServiceImplementation) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	notifications, pagination, err := s.repo.GetByUserID(ctx, userID, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return notifications, pagination, nil
}

func (s *ServiceImplementation) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return count, nil
}

func (s *ServiceImplementation) MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return common.ErrForbidden.WithDetails("Notification belongs to another user.")
	}
	if n.IsRead {
		return nil
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		s.logger.Error("Failed to mark notification read", zap.Error(err), zap.String("notification_id", notificationID.String()))
		return common.ErrInternalServer.WithDetails("Could not mark notification as read.")
	}
	return nil
}

func (s *ServiceImplementation) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications read", zap.Error(err), zap.String("user_id", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not mark all notifications as read.")
	}
	return count, nil
}

// Push forwards to the realtime channel when one is attached.
func (s *ServiceImplementation) Push(userID uuid.UUID, event string, payload interface{}) {
	if s.pusher == nil || userID == uuid.Nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Realtime push panicked", zap.Any("panic", r), zap.String("event", event))
		}
	}()
	s.pusher.Push(userID, event, payload)
}
