package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	"github.com/naledi-labs/storefront-backend/pkg/enums"
)

// Repository persists carts and placed orders for the checkout pipeline.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	MarkCartConverted(ctx context.Context, cartID uuid.UUID) error
	CreateOrder(ctx context.Context, order *models.OrderRecord) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) MarkCartConverted(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("status", enums.CartStatusConverted).Error
}

// CreateOrder inserts the order row together with its shipping lines.
func (r *repository) CreateOrder(ctx context.Context, order *models.OrderRecord) error {
	return r.db.WithContext(ctx).Create(order).Error
}
