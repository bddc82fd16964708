// File: internal/notification/model.go
package notification

import (
	"time"

	"campus_lostfound_backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	ConnectionRequestReceived NotificationType = "connection_request"
	ConnectionResponded       NotificationType = "connection_response"
	ConnectionMessageReceived NotificationType = "connection_message"
	ClaimSubmitted            NotificationType = "claim_submitted"
	ClaimStatusChanged        NotificationType = "claim_status"
	ItemStatusChanged         NotificationType = "item_status"
	ClaimsPendingReview       NotificationType = "claims_pending_review"
)

var knownTypes = map[NotificationType]struct{}{
	ConnectionRequestReceived: {},
	ConnectionResponded:       {},
	ConnectionMessageReceived: {},
	ClaimSubmitted:            {},
	ClaimStatusChanged:        {},
	ItemStatusChanged:         {},
	ClaimsPendingReview:       {},
}

// Valid reports whether t belongs to the closed set of notification types.
func (t NotificationType) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// EventNew is the realtime event emitted after a notification is stored.
const EventNew = "notification:new"

// Notification represents a user notification. Only IsRead changes after insert.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_notification_user_status" json:"userId"`
	Type      NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	ItemID    *uuid.UUID       `gorm:"type:uuid" json:"itemId,omitempty"`
	ItemKind  *domain.ItemKind `gorm:"type:varchar(10)" json:"itemKind,omitempty"`
	ClaimID   *uuid.UUID       `gorm:"type:uuid" json:"claimId,omitempty"`
	IsRead    bool             `gorm:"not null;default:false;index:idx_notification_user_status" json:"isRead"`
	CreatedAt time.Time        `gorm:"not null;index:idx_notification_user_status" json:"createdAt"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// CreateInput carries the fields of a new notification.
type CreateInput struct {
	UserID  uuid.UUID
	Type    NotificationType
	Title   string
	Message string
	Item    *domain.ItemRef
	ClaimID *uuid.UUID
}

// UnreadCountResponse is returned by GET /notifications/unread-count.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
