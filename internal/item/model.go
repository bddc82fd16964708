// File: internal/item/model.go
package item

import (
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/google/uuid"
)

// Item is a lost or found report. Both kinds share one table, discriminated by Kind.
type Item struct {
	common.BaseModel
	Kind            domain.ItemKind       `gorm:"type:varchar(10);not null;index" json:"kind"`
	Title           string                `gorm:"type:varchar(200);not null" json:"title"`
	Description     string                `gorm:"type:text" json:"description"`
	Category        string                `gorm:"type:varchar(100);not null" json:"category"`
	SubCategory     string                `gorm:"type:varchar(100)" json:"subCategory,omitempty"`
	CategorySlug    string                `gorm:"type:varchar(120);index" json:"categorySlug"`
	Location        string                `gorm:"type:varchar(255)" json:"location"`
	OccurredOn      *time.Time            `json:"occurredOn,omitempty"`
	ImageURL        string                `gorm:"type:text" json:"imageUrl,omitempty"`
	ReporterID      uuid.UUID             `gorm:"type:uuid;not null;index" json:"reporterId"`
	ReporterName    string                `gorm:"type:varchar(150)" json:"reporterName"`
	ReporterContact string                `gorm:"type:varchar(50)" json:"reporterContact,omitempty"`
	ReporterEmail   string                `gorm:"type:varchar(255)" json:"reporterEmail,omitempty"`
	Status          domain.ItemStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	ApprovalStatus  domain.ApprovalStatus `gorm:"type:varchar(20);not null;index" json:"approvalStatus"`
	ClaimantID      *uuid.UUID            `gorm:"type:uuid" json:"claimantId,omitempty"`
}

// TableName specifies the table name for GORM.
func (Item) TableName() string {
	return "items"
}

// Ref returns the tagged reference to this item.
func (i *Item) Ref() domain.ItemRef {
	return domain.ItemRef{Kind: i.Kind, ID: i.ID}
}

// CreateItemRequest is accepted as multipart form (with an optional "image" file) or JSON.
// Reporter contact fields default to the caller's profile.
type CreateItemRequest struct {
	Title         string `form:"title" json:"title" binding:"required,max=200"`
	Description   string `form:"description" json:"description" binding:"max=5000"`
	Category      string `form:"category" json:"category" binding:"required,max=100"`
	SubCategory   string `form:"subCategory" json:"subCategory" binding:"max=100"`
	Location      string `form:"location" json:"location" binding:"required,max=255"`
	Date          string `form:"date" json:"date" binding:"omitempty,datetime=2006-01-02"`
	ContactName   string `form:"name" json:"name" binding:"max=150"`
	ContactNumber string `form:"contactNumber" json:"contactNumber" binding:"max=50"`
	ContactEmail  string `form:"email" json:"email" binding:"omitempty,email"`
}

// BrowseFilter narrows the public gallery and the admin listing.
type BrowseFilter struct {
	Kind           domain.ItemKind
	Status         domain.ItemStatus
	ApprovalStatus domain.ApprovalStatus
	CategorySlug   string
	Query          string
	ReporterID     *uuid.UUID
}

// AdminUpdateRequest patches moderation fields. ClaimantID "" clears the claimant.
type AdminUpdateRequest struct {
	Status         *string `json:"status" binding:"omitempty,oneof=open claimed returned"`
	ApprovalStatus *string `json:"approvalStatus" binding:"omitempty,oneof=pending approved rejected"`
	ClaimantID     *string `json:"claimantId"`
}

// Summary is the slice of an item other records are enriched with.
type Summary struct {
	ID       uuid.UUID       `json:"id"`
	Kind     domain.ItemKind `json:"kind"`
	Title    string          `json:"title"`
	ImageURL string          `json:"imageUrl,omitempty"`
}
