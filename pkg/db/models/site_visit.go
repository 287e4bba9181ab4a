package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SiteVisit is the immutable record of one physical verification attempt.
// Re-verification appends a new row; rows are never updated or deleted outside
// the secure-deletion cascade.
type SiteVisit struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BillboardID         uuid.UUID      `gorm:"column:billboard_id;type:uuid;not null;index"`
	AssignmentID        uuid.UUID      `gorm:"column:assignment_id;type:uuid;not null"`
	SubAdminID          uuid.UUID      `gorm:"column:sub_admin_id;type:uuid;not null;index"`
	IsVerified          bool           `gorm:"column:is_verified;not null"`
	LocationAccurate    bool           `gorm:"column:location_accurate;not null"`
	StructuralCondition string         `gorm:"column:structural_condition;type:text;not null"`
	VisibilityRating    int            `gorm:"column:visibility_rating;not null"`
	IssuesFound         pq.StringArray `gorm:"column:issues_found;type:text[];not null;default:ARRAY[]::text[]"`
	AccessibilityNotes  *string        `gorm:"column:accessibility_notes"`
	Recommendations     *string        `gorm:"column:recommendations"`
	Notes               string         `gorm:"type:text;not null"`
	PhotoFrontRef       string         `gorm:"column:photo_front_ref;not null"`
	PhotoStructureRef   string         `gorm:"column:photo_structure_ref;not null"`
	ExtraPhotoRefs      pq.StringArray `gorm:"column:extra_photo_refs;type:text[];not null;default:ARRAY[]::text[]"`
	VisitDate           time.Time      `gorm:"column:visit_date;not null"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
}
