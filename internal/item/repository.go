// File: internal/item/repository.go
package item

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for item data operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, it *Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error)
	List(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkClaimed(ctx context.Context, id, claimantID uuid.UUID) (*Item, error)
	FindAllForSync(ctx context.Context, offset, limit int) ([]Item, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM item repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{db: tx}
}

func (r *gormRepository) Create(ctx context.Context, it *Item) error {
	if err := r.db.WithContext(ctx).Create(it).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	var it Item
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Item not found.")
		}
		return nil, fmt.Errorf("failed to find item %s: %w", id, err)
	}
	return &it, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []Item
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	return items, nil
}

func (r *gormRepository) applyFilter(query *gorm.DB, filter BrowseFilter) *gorm.DB {
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ApprovalStatus != "" {
		query = query.Where("approval_status = ?", filter.ApprovalStatus)
	}
	if filter.CategorySlug != "" {
		query = query.Where("category_slug = ?", filter.CategorySlug)
	}
	if filter.ReporterID != nil {
		query = query.Where("reporter_id = ?", *filter.ReporterID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?)", like, like, like)
	}
	return query
}

// List returns a page of items newest first.
func (r *gormRepository) List(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&Item{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting items failed: %w", err)
	}

	var items []Item
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset(common.Offset(page, pageSize)).
		Find(&items).Error
	if err != nil {
		return nil, nil, fmt.Errorf("listing items failed: %w", err)
	}
	return items, common.NewPagination(total, page, pageSize), nil
}

func (r *gormRepository) Update(ctx context.Context, it *Item) error {
	if err := r.db.WithContext(ctx).Save(it).Error; err != nil {
		return fmt.Errorf("failed to update item %s: %w", it.ID, err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Item{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Item not found.")
	}
	return nil
}

// MarkClaimed assigns the claimant and moves an open item to claimed.
// Re-marking for the same claimant is a no-op; an item held by someone else is a state conflict.
func (r *gormRepository) MarkClaimed(ctx context.Context, id, claimantID uuid.UUID) (*Item, error) {
	it, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.ClaimantID != nil && *it.ClaimantID == claimantID && it.Status.RequiresClaimant() {
		return it, nil
	}
	if it.Status != domain.ItemOpen {
		return nil, common.ErrStateConflict.WithDetails("Item has already been claimed by another user.")
	}

	result := r.db.WithContext(ctx).Model(&Item{}).
		Where("id = ? AND status = ?", id, domain.ItemOpen).
		Updates(map[string]interface{}{"status": domain.ItemClaimed, "claimant_id": claimantID})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark item %s claimed: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, common.ErrStateConflict.WithDetails("Item has already been claimed by another user.")
	}
	it.Status = domain.ItemClaimed
	it.ClaimantID = &claimantID
	return it, nil
}

// FindAllForSync pages through every item in a stable order for re-indexing.
func (r *gormRepository) FindAllForSync(ctx context.Context, offset, limit int) ([]Item, error) {
	var items []Item
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items for sync: %w", err)
	}
	return items, nil
}
