package assignments

import (
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// Actor is the authenticated caller performing an assignment operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
	Name string
}

// AssignmentOutcome reports how an Assign call resolved.
type AssignmentOutcome string

const (
	// OutcomeCreated means the billboard had no active assignment.
	OutcomeCreated AssignmentOutcome = "created"
	// OutcomeSuperseded means a prior active assignment was retired first.
	OutcomeSuperseded AssignmentOutcome = "superseded"
)

// AssignInput captures a verification assignment request.
type AssignInput struct {
	BillboardID uuid.UUID `json:"billboard_id" validate:"required"`
	SubAdminID  uuid.UUID `json:"sub_admin_id" validate:"required"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes       *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AssignmentResponse is the API-facing view of an assignment.
type AssignmentResponse struct {
	ID             uuid.UUID                `json:"id"`
	BillboardID    uuid.UUID                `json:"billboard_id"`
	BillboardTitle string                   `json:"billboard_title,omitempty"`
	BillboardCity  string                   `json:"billboard_city,omitempty"`
	SubAdminID     uuid.UUID                `json:"sub_admin_id"`
	AssignedByID   uuid.UUID                `json:"assigned_by_id"`
	Status         enums.AssignmentStatus   `json:"status"`
	Priority       enums.AssignmentPriority `json:"priority"`
	Notes          *string                  `json:"notes,omitempty"`
	IsActive       bool                     `json:"is_active"`
	AssignedAt     time.Time                `json:"assigned_at"`
	CompletedAt    *time.Time               `json:"completed_at,omitempty"`
}

// AssignResult pairs the new assignment with how it came to be.
type AssignResult struct {
	Assignment AssignmentResponse `json:"assignment"`
	Outcome    AssignmentOutcome  `json:"outcome"`
	Superseded *uuid.UUID         `json:"superseded_assignment_id,omitempty"`
}

// ListParams filters a sub-admin's assignment dashboard.
type ListParams struct {
	SubAdminID uuid.UUID
	ActiveOnly bool
	Limit      int
	Cursor     string
}

// ListResult carries one dashboard page plus the cursor for the next one.
type ListResult struct {
	Items  []AssignmentResponse `json:"items"`
	Cursor string               `json:"cursor,omitempty"`
}

func toAssignmentResponse(view AssignmentView) AssignmentResponse {
	return AssignmentResponse{
		ID:             view.ID,
		BillboardID:    view.BillboardID,
		BillboardTitle: view.BillboardTitle,
		BillboardCity:  view.BillboardCity,
		SubAdminID:     view.SubAdminID,
		AssignedByID:   view.AssignedByID,
		Status:         view.Status,
		Priority:       view.Priority,
		Notes:          view.Notes,
		IsActive:       view.IsActive,
		AssignedAt:     view.AssignedAt,
		CompletedAt:    view.CompletedAt,
	}
}
