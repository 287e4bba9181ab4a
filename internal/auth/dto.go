package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	FullName string  `json:"full_name" validate:"required,min=1,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Role     string  `json:"role" validate:"omitempty,oneof=user owner"`
}

// LoginInput carries credentials plus request metadata for the audit trail.
type LoginInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	UserID    uuid.UUID        `json:"user_id"`
	Email     string           `json:"email"`
	FullName  string           `json:"full_name"`
	Role      enums.UserRole   `json:"role"`
	KYCStatus *enums.KYCStatus `json:"kyc_status,omitempty"`
}

// SessionInfo describes a validated session.
type SessionInfo struct {
	SessionID uuid.UUID        `json:"session_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Role      enums.UserRole   `json:"role"`
	KYCStatus *enums.KYCStatus `json:"kyc_status,omitempty"`
	ExpiresAt time.Time        `json:"expires_at"`
}
