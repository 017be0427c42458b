package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	"github.com/naledi-labs/storefront-backend/pkg/pagination"
)

// Repository reads and updates placed orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.OrderRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.OrderRecord, error)
	UpdateStatus(ctx context.Context, order *models.OrderRecord) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.OrderRecord, error) {
	var order models.OrderRecord
	err := r.db.WithContext(ctx).
		Preload("ShippingLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.OrderRecord, error) {
	query := r.db.WithContext(ctx).
		Preload("ShippingLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var records []models.OrderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) UpdateStatus(ctx context.Context, order *models.OrderRecord) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":      order.Status,
			"canceled_at": order.CanceledAt,
		}).Error
}
