package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// User represents the canonical identity entity. KYC fields are only
// meaningful for role "owner"; staff and plain users carry a nil status.
type User struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email          string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash   string           `gorm:"column:password_hash;not null"`
	FullName       string           `gorm:"column:full_name;not null"`
	Phone          *string          `gorm:"column:phone"`
	Role           enums.UserRole   `gorm:"column:role;type:user_role;not null;default:'user'"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	IsDemo         bool             `gorm:"column:is_demo;not null;default:false"`
	KYCStatus      *enums.KYCStatus `gorm:"column:kyc_status;type:kyc_status"`
	RejectionNotes *string          `gorm:"column:rejection_notes"`
	LastLoginAt    *time.Time       `gorm:"column:last_login_at"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
