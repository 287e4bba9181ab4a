package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// Billboard is the advertising asset owned by exactly one owner account.
// Status moves along the lifecycle graph; every transition is written with a
// status guard so concurrent admins cannot overwrite each other.
type Billboard struct {
	ID              uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID         uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;index"`
	Status          enums.BillboardStatus `gorm:"column:status;type:billboard_status;not null;default:'draft'"`
	Title           string                `gorm:"type:text;not null"`
	Description     *string               `gorm:"type:text"`
	City            string                `gorm:"type:text;not null"`
	Address         string                `gorm:"type:text;not null"`
	Latitude        *float64              `gorm:"column:latitude"`
	Longitude       *float64              `gorm:"column:longitude"`
	WidthFt         decimal.Decimal       `gorm:"column:width_ft;type:numeric(8,2);not null"`
	HeightFt        decimal.Decimal       `gorm:"column:height_ft;type:numeric(8,2);not null"`
	DailyRate       decimal.Decimal       `gorm:"column:daily_rate;type:numeric(12,2);not null"`
	MonthlyRate     decimal.Decimal       `gorm:"column:monthly_rate;type:numeric(12,2);not null"`
	Illuminated     bool                  `gorm:"column:illuminated;not null;default:false"`
	ImageRefs       pq.StringArray        `gorm:"column:image_refs;type:text[];not null;default:ARRAY[]::text[]"`
	AdminNotes      *string               `gorm:"column:admin_notes"`
	RejectionReason *string               `gorm:"column:rejection_reason"`
	ApprovedAt      *time.Time            `gorm:"column:approved_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
