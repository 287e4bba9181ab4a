package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking reserves a billboard for a date range. Booking workflows live in the
// hosted backend; the row exists here as a deletion-cascade dependency and for
// worklist denormalization.
type Booking struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BillboardID uuid.UUID       `gorm:"column:billboard_id;type:uuid;not null;index"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	StartDate   time.Time       `gorm:"column:start_date;not null"`
	EndDate     time.Time       `gorm:"column:end_date;not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status      string          `gorm:"type:text;not null;default:'pending'"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
