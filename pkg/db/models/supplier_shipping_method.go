package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierShippingMethod links a supplier to a global shipping method.
// At most one row per supplier carries IsDefault=true; the catalog service
// clears all other defaults for the supplier before setting a new one.
type SupplierShippingMethod struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID  uuid.UUID        `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:idx_supplier_method"`
	MethodID    uuid.UUID        `gorm:"column:method_id;type:uuid;not null;uniqueIndex:idx_supplier_method"`
	IsEnabled   bool             `gorm:"column:is_enabled;not null;default:true"`
	IsDefault   bool             `gorm:"column:is_default;not null;default:false"`
	CustomPrice *decimal.Decimal `gorm:"column:custom_price;type:numeric(12,2)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Method *ShippingMethod `gorm:"foreignKey:MethodID"`
}
