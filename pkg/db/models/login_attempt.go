package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// LoginAttempt is an append-only audit row. Rate limiting is computed as a
// sliding window over recent failed rows for the same email.
type LoginAttempt struct {
	ID            uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string                    `gorm:"type:text;not null;index:idx_login_attempts_email_at"`
	IPAddress     string                    `gorm:"column:ip_address;type:text;not null"`
	UserAgent     string                    `gorm:"column:user_agent;type:text;not null"`
	Success       bool                      `gorm:"column:success;not null"`
	FailureReason *enums.LoginFailureReason `gorm:"column:failure_reason;type:login_failure_reason"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:1"`
	BlockedUntil  *time.Time                `gorm:"column:blocked_until"`
	AttemptedAt   time.Time                 `gorm:"column:attempted_at;index:idx_login_attempts_email_at;autoCreateTime"`
}
