package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// Actor identifies who is performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
	Name string
}

// UserResponse is the API projection of a user row.
type UserResponse struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	FullName    string           `json:"full_name"`
	Phone       *string          `json:"phone,omitempty"`
	Role        enums.UserRole   `json:"role"`
	IsActive    bool             `json:"is_active"`
	KYCStatus   *enums.KYCStatus `json:"kyc_status,omitempty"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// UpdateUserInput carries the mutable profile fields. Nil means unchanged.
type UpdateUserInput struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	IsActive *bool   `json:"is_active"`
}

// ListParams configures pagination for the admin user list.
type ListParams struct {
	Role   string
	Limit  int
	Cursor string
}

// ListResult wraps returned users and the cursor for the next page.
type ListResult struct {
	Items  []UserResponse `json:"items"`
	Cursor string         `json:"cursor"`
}

// DeletionReport summarizes a completed secure deletion.
type DeletionReport struct {
	UserID          uuid.UUID        `json:"user_id"`
	DeletedCounts   map[string]int64 `json:"deleted_counts"`
	SessionsRevoked bool             `json:"sessions_revoked"`
	Warnings        []string         `json:"warnings,omitempty"`
	ElapsedMS       int64            `json:"elapsed_ms"`
}

func toUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Phone:       user.Phone,
		Role:        user.Role,
		IsActive:    user.IsActive,
		KYCStatus:   user.KYCStatus,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
