package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
)

// SyncLog records one integration run for the admin dashboard.
type SyncLog struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Provider  string           `gorm:"column:provider;not null;index" json:"provider"`
	Kind      string           `gorm:"column:kind;not null" json:"kind"`
	Status    enums.SyncStatus `gorm:"column:status;not null" json:"status"`
	Message   string           `gorm:"column:message" json:"message"`
	Imported  int              `gorm:"column:imported;not null;default:0" json:"imported"`
	Total     int              `gorm:"column:total;not null;default:0" json:"total"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
