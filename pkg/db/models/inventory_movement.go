package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
)

// InventoryMovement is an immutable ledger entry. Current stock for a product
// is the sum of its movements; no stock counter exists anywhere else.
type InventoryMovement struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index" json:"productId"`
	Quantity  int                `gorm:"column:quantity;not null" json:"quantity"`
	Type      enums.MovementType `gorm:"column:type;not null" json:"type"`
	Note      string             `gorm:"column:note" json:"note"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
