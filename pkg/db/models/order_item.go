package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots product name, category and price at order time so
// historical orders keep their value when the catalog changes later.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid" json:"productId,omitempty"`
	Product   *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	// Name and Category are denormalized from the product at checkout.
	Name     string          `gorm:"column:name;not null" json:"name"`
	Category string          `gorm:"column:category" json:"category"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Quantity int             `gorm:"column:quantity;not null" json:"quantity"`
}
