package models

import (
	"time"

	"github.com/google/uuid"
)

// IntegrationToken holds one OAuth credential set per external provider.
// Created on the first successful exchange, updated in place on refresh.
type IntegrationToken struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Provider     string     `gorm:"column:provider;not null;uniqueIndex" json:"provider"`
	AccessToken  string     `gorm:"column:access_token;not null" json:"-"`
	RefreshToken *string    `gorm:"column:refresh_token" json:"-"`
	ExpiresAt    *time.Time `gorm:"column:expires_at" json:"expiresAt,omitempty"`
	Scope        *string    `gorm:"column:scope" json:"scope,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
