package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

// AdminNotification stores in-app notification payloads for admin consoles.
// TargetAdminID nil means broadcast to every admin. The payload carries
// denormalized display names so consumers can render without a follow-up join
// even after the referenced rows are deleted.
type AdminNotification struct {
	ID              uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type            enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	TargetAdminID   *uuid.UUID             `gorm:"column:target_admin_id;type:uuid;index"`
	SourceAdminName string                 `gorm:"column:source_admin_name;type:text;not null"`
	Title           string                 `gorm:"type:text;not null"`
	Message         string                 `gorm:"type:text;not null"`
	Payload         json.RawMessage        `gorm:"column:payload;type:jsonb"`
	ProcessedAt     *time.Time             `gorm:"column:processed_at;type:timestamptz"`
	CreatedAt       time.Time              `gorm:"column:created_at;type:timestamptz;default:now()"`
}
