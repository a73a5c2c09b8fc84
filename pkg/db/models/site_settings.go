package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SiteSetting stores one CMS content blob per key.
type SiteSetting struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key       string          `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Value     json.RawMessage `gorm:"column:value;type:jsonb" json:"value"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
