package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier owns products and a set of linked shipping methods.
// Deactivation is a flag flip; suppliers are never deleted while products
// still reference them.
type Supplier struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
