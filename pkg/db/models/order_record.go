package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/naledi-labs/storefront-backend/pkg/enums"
)

// OrderRecord persists the composed totals breakdown exactly as the invoice
// renders it: Total = Subtotal + ShippingCost + VATAmount - CreditApplied,
// floored at zero.
type OrderRecord struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	CartID           uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'placed'"`
	Subtotal         decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost     decimal.Decimal   `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	VATRate          decimal.Decimal   `gorm:"column:vat_rate;type:numeric(5,2);not null"`
	VATAmount        decimal.Decimal   `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	CreditApplied    decimal.Decimal   `gorm:"column:credit_applied;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	ValidationErrors pq.StringArray    `gorm:"column:validation_errors;type:text[]"`
	CanceledAt       *time.Time        `gorm:"column:canceled_at"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	ShippingLines []OrderShippingLine `gorm:"foreignKey:OrderID"`
}
