// File: internal/chat/model.go
package chat

import (
	"bytes"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a free-text conversation between two users about one item.
// The participant pair is stored sorted so (a, b) and (b, a) hit the same unique key.
type Chat struct {
	common.BaseModel
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_chat_pair,priority:1" json:"itemId"`
	ItemKind        domain.ItemKind `gorm:"type:varchar(10);not null;uniqueIndex:idx_chat_pair,priority:2" json:"itemType"`
	ParticipantLow  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_chat_pair,priority:3;index" json:"-"`
	ParticipantHigh uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_chat_pair,priority:4;index" json:"-"`
	OwnerID         uuid.UUID       `gorm:"type:uuid;not null" json:"ownerId"`
	RequesterID     uuid.UUID       `gorm:"type:uuid;not null" json:"requesterId"`
	LastMessageID   *uuid.UUID      `gorm:"type:uuid" json:"lastMessageId,omitempty"`
	LastMessage     *Message        `gorm:"foreignKey:LastMessageID" json:"lastMessage,omitempty"`
}

func (Chat) TableName() string {
	return "chats"
}

// Participants returns both users of the chat.
func (c *Chat) Participants() []uuid.UUID {
	return []uuid.UUID{c.ParticipantLow, c.ParticipantHigh}
}

func (c *Chat) IsParticipant(userID uuid.UUID) bool {
	return c.ParticipantLow == userID || c.ParticipantHigh == userID
}

// orderedPair sorts two ids bytewise.
func orderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// Message is an immutable chat message.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;index" json:"chatId"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"senderId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type CreateChatRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	OwnerID  string `json:"ownerId"`
	ItemType string `json:"itemType"`
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// View is a chat with its item resolved.
type View struct {
	Chat
	ItemTitle string `json:"itemTitle"`
	ItemImage string `json:"itemImage,omitempty"`
}
