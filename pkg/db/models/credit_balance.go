package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditBalance is the single spendable-balance row per user.
// Invariants: AvailableCredits <= TotalCredits and AvailableCredits >= 0.
type CreditBalance struct {
	UserID           uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	TotalCredits     decimal.Decimal `gorm:"column:total_credits;type:numeric(12,2);not null;default:0"`
	AvailableCredits decimal.Decimal `gorm:"column:available_credits;type:numeric(12,2);not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
