// File: internal/chat/repository.go
package chat

import (
	"context"
	"errors"
	"fmt"

	"campus_lostfound_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// GetOrCreate inserts c unless a chat with the same item and participant pair exists,
	// and returns the stored chat.
	GetOrCreate(ctx context.Context, c *Chat) (*Chat, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Chat, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	// AddMessage stores msg and points the chat at it in one transaction.
	AddMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, chatID uuid.UUID, page, pageSize int) ([]Message, *common.Pagination, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetOrCreate(ctx context.Context, c *Chat) (*Chat, bool, error) {
	result := r.db.WithContext(ctx).
		Omit("LastMessage").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "item_id"}, {Name: "item_kind"}, {Name: "participant_low"}, {Name: "participant_high"},
			},
			DoNothing: true,
		}).
		Create(c)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create chat: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return c, true, nil
	}

	var existing Chat
	err := r.db.WithContext(ctx).
		Preload("LastMessage").
		Where("item_id = ? AND item_kind = ? AND participant_low = ? AND participant_high = ?",
			c.ItemID, c.ItemKind, c.ParticipantLow, c.ParticipantHigh).
		First(&existing).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing chat: %w", err)
	}
	return &existing, false, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).Preload("LastMessage").First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Chat not found.")
		}
		return nil, fmt.Errorf("failed to find chat %s: %w", id, err)
	}
	return &c, nil
}

func (r *gormRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	var chats []Chat
	err := r.db.WithContext(ctx).
		Preload("LastMessage").
		Where("(participant_low = ? OR participant_high = ?)", userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for %s: %w", userID, err)
	}
	return chats, nil
}

func (r *gormRepository) AddMessage(ctx context.Context, msg *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		result := tx.Model(&Chat{}).
			Where("id = ?", msg.ChatID).
			Updates(map[string]interface{}{"last_message_id": msg.ID, "updated_at": msg.CreatedAt})
		if result.Error != nil {
			return fmt.Errorf("failed to update chat %s: %w", msg.ChatID, result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Chat not found.")
		}
		return nil
	})
}

func (r *gormRepository) ListMessages(ctx context.Context, chatID uuid.UUID, page, pageSize int) ([]Message, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Message{}).Where("chat_id = ?", chatID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting messages failed: %w", err)
	}

	var messages []Message
	err := query.Order("created_at ASC").
		Limit(pageSize).
		Offset(common.Offset(page, pageSize)).
		Find(&messages).Error
	if err != nil {
		return nil, nil, fmt.Errorf("listing messages failed: %w", err)
	}
	return messages, common.NewPagination(total, page, pageSize), nil
}
