// File: internal/connection/repository.go
package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus_lostfound_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MergeFunc updates an existing request when an initiation hits the (finder, claimant, item) constraint.
type MergeFunc func(existing *Request)

type Repository interface {
	// CreateOrMerge inserts candidate, or merges into the existing request for the same triple,
	// then appends msg. It reports whether a new request was created.
	CreateOrMerge(ctx context.Context, candidate *Request, msg *Message, merge MergeFunc) (*Request, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// AppendMessage adds msg only while the request is accepted and bumps its updated_at.
	AppendMessage(ctx context.Context, msg *Message) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func (r *gormRepository) CreateOrMerge(ctx context.Context, candidate *Request, msg *Message, merge MergeFunc) (*Request, bool, error) {
	var created bool
	var requestID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit("Messages").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "finder_id"}, {Name: "claimant_id"}, {Name: "item_id"}},
				DoNothing: true,
			}).
			Create(candidate)
		if result.Error != nil {
			return fmt.Errorf("failed to insert connection request: %w", result.Error)
		}

		now := time.Now()
		if result.RowsAffected == 1 {
			created = true
			requestID = candidate.ID
		} else {
			var existing Request
			err := tx.Where("finder_id = ? AND claimant_id = ? AND item_id = ?",
				candidate.FinderID, candidate.ClaimantID, candidate.ItemID).
				First(&existing).Error
			if err != nil {
				return fmt.Errorf("failed to load existing connection request: %w", err)
			}
			merge(&existing)
			existing.UpdatedAt = now
			if err := tx.Omit("Messages", "CreatedAt").Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to merge connection request %s: %w", existing.ID, err)
			}
			requestID = existing.ID
		}

		msg.RequestID = requestID
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to append connection message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	req, err := r.FindByID(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	return req, created, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).Preload("Messages", orderedMessages).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Connection request not found.")
		}
		return nil, fmt.Errorf("failed to find connection request %s: %w", id, err)
	}
	return &req, nil
}

// ListForUser returns requests where the user is finder or claimant, most recent activity first.
func (r *gormRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Request, error) {
	var requests []Request
	err := r.db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		Where("(finder_id = ? OR claimant_id = ?)", userID, userID).
		Order("updated_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connection requests for %s: %w", userID, err)
	}
	return requests, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result := r.db.WithContext(ctx).Model(&Request{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update connection request %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Connection request not found.")
	}
	return nil
}

func (r *gormRepository) AppendMessage(ctx context.Context, msg *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&Request{}).
			Where("id = ? AND status = ?", msg.RequestID, StatusAccepted).
			Update("updated_at", now)
		if result.Error != nil {
			return fmt.Errorf("failed to touch connection request %s: %w", msg.RequestID, result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrStateConflict.WithDetails("Messages can only be sent on accepted requests.")
		}
		msg.CreatedAt = now
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to append connection message: %w", err)
		}
		return nil
	})
}
