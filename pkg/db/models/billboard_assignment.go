package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// BillboardAssignment binds one billboard to one sub-admin for verification.
// A partial unique index (billboard_id WHERE is_active) enforces at most one
// active assignment per billboard; re-assignment supersedes the prior row.
type BillboardAssignment struct {
	ID           uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BillboardID  uuid.UUID                `gorm:"column:billboard_id;type:uuid;not null;index"`
	SubAdminID   uuid.UUID                `gorm:"column:sub_admin_id;type:uuid;not null;index"`
	AssignedByID uuid.UUID                `gorm:"column:assigned_by_id;type:uuid;not null"`
	Status       enums.AssignmentStatus   `gorm:"column:status;type:assignment_status;not null;default:'pending'"`
	Priority     enums.AssignmentPriority `gorm:"column:priority;type:assignment_priority;not null;default:'medium'"`
	Notes        *string                  `gorm:"column:notes"`
	IsActive     bool                     `gorm:"column:is_active;not null;default:true"`
	AssignedAt   time.Time                `gorm:"column:assigned_at;autoCreateTime"`
	CompletedAt  *time.Time               `gorm:"column:completed_at"`
}
