package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naledi-labs/storefront-backend/pkg/enums"
)

// CreditTransaction is an append-only ledger row. The running sum of earned
// plus refunded minus used amounts for a user must equal that user's
// available credits.
type CreditTransaction struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID                   `gorm:"column:user_id;type:uuid;not null"`
	OrderID     *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Type        enums.CreditTransactionType `gorm:"column:type;not null"`
	Amount      decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null"`
	Description string                      `gorm:"column:description;not null"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
