package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
)

// Order is created once at checkout. Only status and shipping fields are
// mutated afterward; line items are never added or removed post-creation.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number     string            `gorm:"column:number;not null;uniqueIndex" json:"number"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null" json:"customerId"`
	Customer   *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:pending" json:"status"`
	// Total is captured at checkout as the sum of item price snapshots.
	// It is never re-derived from the items afterward.
	Total           decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	PaymentID       *string         `gorm:"column:payment_id" json:"paymentId,omitempty"`
	ShippingCarrier *string         `gorm:"column:shipping_carrier" json:"shippingCarrier,omitempty"`
	TrackingCode    *string         `gorm:"column:tracking_code" json:"trackingCode,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
