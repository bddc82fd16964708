// File: internal/user/model.go
package user

import (
	"time"

	"campus_lostfound_backend/internal/common"

	"github.com/google/uuid"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName   string     `gorm:"type:varchar(150)" json:"displayName"`
	Role          string     `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	ContactNumber string     `gorm:"type:varchar(50)" json:"contactNumber"`
	IsVerified    bool       `gorm:"not null;default:false" json:"isVerified"`
	FirebaseUID   *string    `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID { return u.ID }
func (u *User) GetEmail() string  { return u.Email }
func (u *User) GetRole() string   { return u.Role }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == common.RoleAdmin
}

// UpdateProfileRequest carries the fields a user may change on their own profile.
type UpdateProfileRequest struct {
	DisplayName   *string `json:"displayName" binding:"omitempty,max=150"`
	ContactNumber *string `json:"contactNumber" binding:"omitempty,max=50"`
}

// SetRoleRequest is the admin payload for PATCH /users/admin/:id/role.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student admin"`
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Role  string
	Query string
}
