package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// BillboardStatusChangedEvent is emitted on every lifecycle transition.
type BillboardStatusChangedEvent struct {
	BillboardID    uuid.UUID             `json:"billboard_id"`
	OwnerID        uuid.UUID             `json:"owner_id"`
	BillboardTitle string                `json:"billboard_title"`
	OldStatus      enums.BillboardStatus `json:"old_status"`
	NewStatus      enums.BillboardStatus `json:"new_status"`
	Reason         string                `json:"reason,omitempty"`
}

// BillboardVerifiedEvent is emitted when a site visit resolves a billboard.
type BillboardVerifiedEvent struct {
	BillboardID    uuid.UUID             `json:"billboard_id"`
	BillboardTitle string                `json:"billboard_title"`
	SiteVisitID    uuid.UUID             `json:"site_visit_id"`
	AssignmentID   uuid.UUID             `json:"assignment_id"`
	SubAdminID     uuid.UUID             `json:"sub_admin_id"`
	SubAdminName   string                `json:"sub_admin_name"`
	Verified       bool                  `json:"verified"`
	NewStatus      enums.BillboardStatus `json:"new_status"`
	VisitDate      time.Time             `json:"visit_date"`
}

// AssignmentChangedEvent feeds sub-admin dashboard updates. Names are
// denormalized so consumers render without joins.
type AssignmentChangedEvent struct {
	AssignmentID   uuid.UUID                `json:"assignment_id"`
	BillboardID    uuid.UUID                `json:"billboard_id"`
	BillboardTitle string                   `json:"billboard_title"`
	SubAdminID     uuid.UUID                `json:"sub_admin_id"`
	SubAdminName   string                   `json:"sub_admin_name"`
	AssignedByName string                   `json:"assigned_by_name"`
	Priority       enums.AssignmentPriority `json:"priority"`
	Superseded     *uuid.UUID               `json:"superseded_assignment_id,omitempty"`
}

// UserDeletedEvent reports the outcome of a secure deletion cascade.
type UserDeletedEvent struct {
	UserID          uuid.UUID        `json:"user_id"`
	Email           string           `json:"email"`
	FullName        string           `json:"full_name"`
	Role            enums.UserRole   `json:"role"`
	DeletedByName   string           `json:"deleted_by_name"`
	DeletedCounts   map[string]int64 `json:"deleted_counts"`
	ElapsedMS       int64            `json:"elapsed_ms"`
	SessionsRevoked bool             `json:"sessions_revoked"`
}

// UserUpdatedEvent carries admin-visible profile changes.
type UserUpdatedEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	FullName      string    `json:"full_name"`
	UpdatedFields []string  `json:"updated_fields"`
}

// SecurityAlertEvent flags suspicious authentication activity.
type SecurityAlertEvent struct {
	Email     string `json:"email"`
	IPAddress string `json:"ip_address"`
	Kind      string `json:"kind"`
	Details   string `json:"details,omitempty"`
}
