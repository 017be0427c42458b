package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderShippingLine records the shipping charge for one supplier group.
// Position preserves the partitioner's first-encounter order, which fixes
// invoice line ordering.
type OrderShippingLine struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	SupplierID uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null"`
	MethodID   uuid.UUID       `gorm:"column:method_id;type:uuid;not null"`
	MethodName string          `gorm:"column:method_name;not null"`
	Cost       decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null"`
	ItemCount  int             `gorm:"column:item_count;not null"`
	Position   int             `gorm:"column:position;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
