// File: internal/claim/repository.go
package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus_lostfound_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalHook runs inside the status transaction when a claim becomes approved.
// Returning an error rolls the status change back.
type ApprovalHook func(tx *gorm.DB, c *Claim) error

type Repository interface {
	Create(ctx context.Context, c *Claim) error
	FindByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	ListByClaimant(ctx context.Context, claimantID uuid.UUID) ([]Claim, error)
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]Claim, *common.Pagination, error)
	// ApplyStatus moves a claim to status and reports whether anything changed.
	ApplyStatus(ctx context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, onApproved ApprovalHook) (*Claim, bool, error)
	CountPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, c *Claim) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	var c Claim
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Claim not found.")
		}
		return nil, fmt.Errorf("failed to find claim %s: %w", id, err)
	}
	return &c, nil
}

func (r *gormRepository) ListByClaimant(ctx context.Context, claimantID uuid.UUID) ([]Claim, error) {
	var claims []Claim
	err := r.db.WithContext(ctx).
		Where("claimant_id = ?", claimantID).
		Order("created_at DESC").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claims for %s: %w", claimantID, err)
	}
	return claims, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]Claim, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Claim{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting claims failed: %w", err)
	}

	var claims []Claim
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset(common.Offset(page, pageSize)).
		Find(&claims).Error
	if err != nil {
		return nil, nil, fmt.Errorf("listing claims failed: %w", err)
	}
	return claims, common.NewPagination(total, page, pageSize), nil
}

// ApplyStatus updates the claim with a compare-and-set on its previous status so
// concurrent reviews cannot both win. Approved claims are final.
func (r *gormRepository) ApplyStatus(ctx context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, onApproved ApprovalHook) (*Claim, bool, error) {
	var out Claim
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound.WithDetails("Claim not found.")
			}
			return fmt.Errorf("failed to load claim %s: %w", id, err)
		}
		if out.Status == status {
			return nil
		}
		if out.Status == StatusApproved {
			return common.ErrStateConflict.WithDetails("An approved claim cannot change status.")
		}

		now := time.Now()
		result := tx.Model(&Claim{}).
			Where("id = ? AND status = ?", id, out.Status).
			Updates(map[string]interface{}{
				"status":      status,
				"reviewed_by": reviewerID,
				"reviewed_at": now,
				"updated_at":  now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update claim %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrStateConflict.WithDetails("Claim was reviewed concurrently; reload and retry.")
		}
		out.Status = status
		out.ReviewedBy = &reviewerID
		out.ReviewedAt = &now
		out.UpdatedAt = now

		if status == StatusApproved && onApproved != nil {
			if err := onApproved(tx, &out); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, changed, nil
}

func (r *gormRepository) CountPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Claim{}).
		Where("status = ? AND created_at < ?", StatusPending, cutoff).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending claims: %w", err)
	}
	return count, nil
}
