// File: internal/connection/model.go
package connection

import (
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
)

// Verification holds the claimant's answers proving ownership.
type Verification struct {
	Color    string `json:"color"`
	Mark     string `json:"mark"`
	Location string `json:"location"`
}

// BackFill copies fields from other into v where v is blank.
func (v Verification) BackFill(other Verification) Verification {
	if v.Color == "" {
		v.Color = other.Color
	}
	if v.Mark == "" {
		v.Mark = other.Mark
	}
	if v.Location == "" {
		v.Location = other.Location
	}
	return v
}

// Request is a negotiation thread between an item's finder and a prospective claimant.
// There is at most one per (finder, claimant, item).
type Request struct {
	common.BaseModel
	FinderID     uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex:idx_connection_triple,priority:1" json:"finderId"`
	ClaimantID   uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex:idx_connection_triple,priority:2;index" json:"claimantId"`
	ItemID       uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex:idx_connection_triple,priority:3" json:"itemId"`
	ItemKind     domain.ItemKind                  `gorm:"type:varchar(10);not null" json:"itemType"`
	Status       Status                           `gorm:"type:varchar(20);not null" json:"status"`
	Verification datatypes.JSONType[Verification] `json:"verification"`
	Messages     []Message                        `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"messages"`
}

func (Request) TableName() string {
	return "connection_requests"
}

// IsParticipant reports whether userID is the finder or the claimant.
func (r *Request) IsParticipant(userID uuid.UUID) bool {
	return r.FinderID == userID || r.ClaimantID == userID
}

// Counterpart returns the other participant.
func (r *Request) Counterpart(userID uuid.UUID) uuid.UUID {
	if r.FinderID == userID {
		return r.ClaimantID
	}
	return r.FinderID
}

// Message is one entry of a request's thread. Messages are append-only.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"senderId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

func (Message) TableName() string {
	return "connection_messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type InitiateRequest struct {
	ItemID          string       `json:"itemId" binding:"required"`
	ItemType        string       `json:"itemType"`
	Verification    Verification `json:"verification"`
	TemplateMessage string       `json:"templateMessage" binding:"max=2000"`
}

type RespondRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

type MessageRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// View is a request enriched with the referenced item's title and image.
type View struct {
	Request
	ItemTitle string `json:"itemTitle"`
	ItemImage string `json:"itemImage,omitempty"`
}

// MessageEvent is pushed to both participants when a message is posted.
type MessageEvent struct {
	RequestID uuid.UUID `json:"requestId"`
	Message   Message   `json:"message"`
}
