// File: internal/claim/model.go
package claim

import (
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/google/uuid"
)

// Status is the review state of a claim.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Claim is a formal, admin-reviewed assertion of ownership over an item.
type Claim struct {
	common.BaseModel
	ClaimantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"claimantId"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"itemId"`
	ItemKind         domain.ItemKind `gorm:"type:varchar(10);not null" json:"itemType"`
	Name             string          `gorm:"type:varchar(150);not null" json:"name"`
	Email            string          `gorm:"type:varchar(255);not null" json:"email"`
	StudentID        string          `gorm:"type:varchar(50);not null" json:"studentId"`
	ContactNumber    string          `gorm:"type:varchar(50);not null" json:"contactNumber"`
	ProofDescription string          `gorm:"type:text" json:"proofDescription"`
	ProofImage       string          `gorm:"type:text" json:"proofImage,omitempty"`
	Status           Status          `gorm:"type:varchar(20);not null;index" json:"status"`
	ReviewedBy       *uuid.UUID      `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewedAt,omitempty"`
}

func (Claim) TableName() string {
	return "claims"
}

// Ref returns the claimed item's reference.
func (c *Claim) Ref() domain.ItemRef {
	return domain.ItemRef{Kind: c.ItemKind, ID: c.ItemID}
}

// SubmitRequest is bound from multipart form (optional "proofImage" file) or JSON.
type SubmitRequest struct {
	ItemID           string `form:"itemId" json:"itemId" binding:"required"`
	ItemType         string `form:"itemType" json:"itemType"`
	Name             string `form:"name" json:"name" binding:"required,max=150"`
	Email            string `form:"email" json:"email" binding:"required,email"`
	StudentID        string `form:"studentId" json:"studentId" binding:"required,max=50"`
	ContactNumber    string `form:"contactNumber" json:"contactNumber" binding:"required,max=50"`
	ProofDescription string `form:"proofDescription" json:"proofDescription" binding:"max=5000"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
}

// ListFilter narrows the admin claim listing.
type ListFilter struct {
	Status Status
}
