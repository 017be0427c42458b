package suppliers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
)

// Repository manages persistence for suppliers and their shipping links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	FindMethod(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
	ListMethods(ctx context.Context) ([]models.ShippingMethod, error)
	CreateMethod(ctx context.Context, method *models.ShippingMethod) error
	ListLinks(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierShippingMethod, error)
	FindLink(ctx context.Context, supplierID, methodID uuid.UUID) (*models.SupplierShippingMethod, error)
	CreateLink(ctx context.Context, link *models.SupplierShippingMethod) error
	UpdateLink(ctx context.Context, link *models.SupplierShippingMethod) error
	ClearDefaults(ctx context.Context, supplierID uuid.UUID) error
	SetDefault(ctx context.Context, linkID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a supplier catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) FindMethod(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListMethods(ctx context.Context) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) CreateMethod(ctx context.Context, method *models.ShippingMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *repository) ListLinks(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierShippingMethod, error) {
	var links []models.SupplierShippingMethod
	if err := r.db.WithContext(ctx).
		Preload("Method").
		Where("supplier_id = ?", supplierID).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) FindLink(ctx context.Context, supplierID, methodID uuid.UUID) (*models.SupplierShippingMethod, error) {
	var link models.SupplierShippingMethod
	if err := r.db.WithContext(ctx).
		Preload("Method").
		Where("supplier_id = ? AND method_id = ?", supplierID, methodID).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) CreateLink(ctx context.Context, link *models.SupplierShippingMethod) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *repository) UpdateLink(ctx context.Context, link *models.SupplierShippingMethod) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *repository) ClearDefaults(ctx context.Context, supplierID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SupplierShippingMethod{}).
		Where("supplier_id = ? AND is_default = ?", supplierID, true).
		Update("is_default", false).Error
}

func (r *repository) SetDefault(ctx context.Context, linkID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SupplierShippingMethod{}).
		Where("id = ?", linkID).
		Update("is_default", true).Error
}
