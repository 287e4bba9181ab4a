package billboards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// Actor is the authenticated caller performing a lifecycle operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
	Name string
}

// CreateBillboardInput captures a new draft listing.
type CreateBillboardInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	City        string          `json:"city" validate:"required,max=120"`
	Address     string          `json:"address" validate:"required,max=400"`
	Latitude    *float64        `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64        `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	WidthFt     decimal.Decimal `json:"width_ft" validate:"required"`
	HeightFt    decimal.Decimal `json:"height_ft" validate:"required"`
	DailyRate   decimal.Decimal `json:"daily_rate" validate:"required"`
	MonthlyRate decimal.Decimal `json:"monthly_rate" validate:"required"`
	Illuminated bool            `json:"illuminated"`
	ImageRefs   []string        `json:"image_refs" validate:"omitempty,dive,max=512"`
}

// UpdateBillboardInput carries owner edits. Only draft listings are editable.
type UpdateBillboardInput struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	City        *string          `json:"city,omitempty" validate:"omitempty,max=120"`
	Address     *string          `json:"address,omitempty" validate:"omitempty,max=400"`
	DailyRate   *decimal.Decimal `json:"daily_rate,omitempty"`
	MonthlyRate *decimal.Decimal `json:"monthly_rate,omitempty"`
	Illuminated *bool            `json:"illuminated,omitempty"`
	ImageRefs   []string         `json:"image_refs,omitempty" validate:"omitempty,dive,max=512"`
}

// BillboardResponse is the API-facing view of a listing.
type BillboardResponse struct {
	ID              uuid.UUID             `json:"id"`
	OwnerID         uuid.UUID             `json:"owner_id"`
	Status          enums.BillboardStatus `json:"status"`
	Title           string                `json:"title"`
	Description     *string               `json:"description,omitempty"`
	City            string                `json:"city"`
	Address         string                `json:"address"`
	Latitude        *float64              `json:"latitude,omitempty"`
	Longitude       *float64              `json:"longitude,omitempty"`
	WidthFt         decimal.Decimal       `json:"width_ft"`
	HeightFt        decimal.Decimal       `json:"height_ft"`
	DailyRate       decimal.Decimal       `json:"daily_rate"`
	MonthlyRate     decimal.Decimal       `json:"monthly_rate"`
	Illuminated     bool                  `json:"illuminated"`
	ImageRefs       []string              `json:"image_refs"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ListParams filters the billboard listing endpoints.
type ListParams struct {
	OwnerID *uuid.UUID
	Status  *enums.BillboardStatus
	City    *string
	Limit   int
	Cursor  string
}

// ListResult carries one page plus the cursor for the next one.
type ListResult struct {
	Items  []BillboardResponse `json:"items"`
	Cursor string              `json:"cursor,omitempty"`
}

func toBillboardResponse(b models.Billboard) BillboardResponse {
	return BillboardResponse{
		ID:              b.ID,
		OwnerID:         b.OwnerID,
		Status:          b.Status,
		Title:           b.Title,
		Description:     b.Description,
		City:            b.City,
		Address:         b.Address,
		Latitude:        b.Latitude,
		Longitude:       b.Longitude,
		WidthFt:         b.WidthFt,
		HeightFt:        b.HeightFt,
		DailyRate:       b.DailyRate,
		MonthlyRate:     b.MonthlyRate,
		Illuminated:     b.Illuminated,
		ImageRefs:       []string(b.ImageRefs),
		RejectionReason: b.RejectionReason,
		ApprovedAt:      b.ApprovedAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
