package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog entry. ExternalID is the reconciliation
// key for ERP-sourced products and is unique when present.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExternalID    *string          `gorm:"column:external_id;uniqueIndex" json:"externalId,omitempty"`
	Name          string           `gorm:"column:name;not null" json:"name"`
	Description   string           `gorm:"column:description" json:"description"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	OriginalPrice *decimal.Decimal `gorm:"column:original_price;type:numeric(12,2)" json:"originalPrice,omitempty"`
	Image         *string          `gorm:"column:image" json:"image,omitempty"`
	Images        pq.StringArray   `gorm:"column:images;type:text[]" json:"images"`
	CategoryID    *uuid.UUID       `gorm:"column:category_id;type:uuid" json:"categoryId,omitempty"`
	Category      *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	BrandID       *uuid.UUID       `gorm:"column:brand_id;type:uuid" json:"brandId,omitempty"`
	Brand         *Brand           `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	InStock       bool             `gorm:"column:in_stock;not null;default:true" json:"inStock"`
	Featured      bool             `gorm:"column:featured;not null;default:false" json:"featured"`
	Rating        float64          `gorm:"column:rating;not null;default:0" json:"rating"`
	WeightGrams   *int             `gorm:"column:weight_grams" json:"weightGrams,omitempty"`
	LengthCM      *float64         `gorm:"column:length_cm" json:"lengthCm,omitempty"`
	HeightCM      *float64         `gorm:"column:height_cm" json:"heightCm,omitempty"`
	WidthCM       *float64         `gorm:"column:width_cm" json:"widthCm,omitempty"`
	Specs         json.RawMessage  `gorm:"column:specs;type:jsonb" json:"specs,omitempty"`
	CustomFields  json.RawMessage  `gorm:"column:custom_fields;type:jsonb" json:"customFields,omitempty"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
