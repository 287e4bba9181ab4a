package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSession is the server-side session row keyed by the access token's jti.
// Sessions always carry an expiry; validation treats a missing, inactive, or
// expired row as an invalid session.
type UserSession struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	IPAddress string     `gorm:"column:ip_address;type:text;not null"`
	UserAgent string     `gorm:"column:user_agent;type:text;not null"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
