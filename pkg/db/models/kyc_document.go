package models

import (
	"time"

	"github.com/google/uuid"
)

// KYCDocument references an uploaded identity/business document for an owner
// account. File storage itself is external; only the opaque reference lives
// here. Rows are removed by the secure-deletion cascade.
type KYCDocument struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Kind        string    `gorm:"type:text;not null"`
	FileRef     string    `gorm:"column:file_ref;type:text;not null"`
	SubmittedAt time.Time `gorm:"column:submitted_at;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
