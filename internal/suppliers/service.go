package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ApplicableMethod is a shipping method usable by one supplier, priced with
// that supplier's override when present.
type ApplicableMethod struct {
	MethodID       uuid.UUID
	Name           string
	EffectivePrice decimal.Decimal
	IsDefault      bool
}

// Service exposes the supplier shipping catalog.
type Service interface {
	ResolveApplicableMethods(ctx context.Context, supplierID uuid.UUID) ([]ApplicableMethod, error)
	ListSupplierMethods(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierShippingMethod, error)
	LinkMethod(ctx context.Context, supplierID, methodID uuid.UUID) (*models.SupplierShippingMethod, error)
	SetDefaultMethod(ctx context.Context, supplierID, methodID uuid.UUID) error
	SetMethodEnabled(ctx context.Context, supplierID, methodID uuid.UUID, enabled bool) error
	SetCustomPrice(ctx context.Context, supplierID, methodID uuid.UUID, price *decimal.Decimal) error
	CreateMethod(ctx context.Context, name string, basePrice decimal.Decimal) (*models.ShippingMethod, error)
	ListMethods(ctx context.Context) ([]models.ShippingMethod, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the supplier catalog service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ResolveApplicableMethods returns every method linked to the supplier where
// both the link and the global method are enabled, priced with the supplier
// override when set. Order follows link creation order; callers wanting a
// cheapest-first policy sort the result themselves.
func (s *service) ResolveApplicableMethods(ctx context.Context, supplierID uuid.UUID) ([]ApplicableMethod, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}

	if _, err := s.repo.FindSupplier(ctx, supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, err
	}

	links, err := s.repo.ListLinks(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	applicable := make([]ApplicableMethod, 0, len(links))
	for _, link := range links {
		if !link.IsEnabled {
			continue
		}
		if link.Method == nil {
			// The referenced method row was deleted out from under the link.
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("shipping method %s no longer exists", link.MethodID))
		}
		if !link.Method.IsActive {
			continue
		}
		price := link.Method.BasePrice
		if link.CustomPrice != nil {
			price = *link.CustomPrice
		}
		applicable = append(applicable, ApplicableMethod{
			MethodID:       link.MethodID,
			Name:           link.Method.Name,
			EffectivePrice: price,
			IsDefault:      link.IsDefault,
		})
	}
	return applicable, nil
}

func (s *service) ListSupplierMethods(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierShippingMethod, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if _, err := s.repo.FindSupplier(ctx, supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, err
	}
	return s.repo.ListLinks(ctx, supplierID)
}

func (s *service) LinkMethod(ctx context.Context, supplierID, methodID uuid.UUID) (*models.SupplierShippingMethod, error) {
	if supplierID == uuid.Nil || methodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id and method id are required")
	}

	if _, err := s.repo.FindSupplier(ctx, supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, err
	}
	if _, err := s.repo.FindMethod(ctx, methodID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping method not found")
		}
		return nil, err
	}
	if _, err := s.repo.FindLink(ctx, supplierID, methodID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "method already linked to supplier")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	link := &models.SupplierShippingMethod{
		SupplierID: supplierID,
		MethodID:   methodID,
		IsEnabled:  true,
	}
	if err := s.repo.CreateLink(ctx, link); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link shipping method")
	}
	return link, nil
}

// SetDefaultMethod makes the (supplier, method) link the supplier's default.
// All other defaults for the supplier are cleared first, inside the same
// transaction, so at most one default survives.
func (s *service) SetDefaultMethod(ctx context.Context, supplierID, methodID uuid.UUID) error {
	if supplierID == uuid.Nil || methodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id and method id are required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		link, err := txRepo.FindLink(ctx, supplierID, methodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "method not linked to supplier")
			}
			return err
		}
		if !link.IsEnabled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot default a disabled method")
		}

		if err := txRepo.ClearDefaults(ctx, supplierID); err != nil {
			return err
		}
		return txRepo.SetDefault(ctx, link.ID)
	})
}

func (s *service) SetMethodEnabled(ctx context.Context, supplierID, methodID uuid.UUID, enabled bool) error {
	if supplierID == uuid.Nil || methodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id and method id are required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		link, err := txRepo.FindLink(ctx, supplierID, methodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "method not linked to supplier")
			}
			return err
		}
		link.IsEnabled = enabled
		if !enabled {
			// A disabled method cannot stay the default.
			link.IsDefault = false
		}
		return txRepo.UpdateLink(ctx, link)
	})
}

func (s *service) SetCustomPrice(ctx context.Context, supplierID, methodID uuid.UUID, price *decimal.Decimal) error {
	if supplierID == uuid.Nil || methodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id and method id are required")
	}
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "custom price cannot be negative")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		link, err := txRepo.FindLink(ctx, supplierID, methodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "method not linked to supplier")
			}
			return err
		}
		link.CustomPrice = price
		return txRepo.UpdateLink(ctx, link)
	})
}

func (s *service) CreateMethod(ctx context.Context, name string, basePrice decimal.Decimal) (*models.ShippingMethod, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method name is required")
	}
	if basePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	method := &models.ShippingMethod{
		Name:      name,
		BasePrice: basePrice,
		IsActive:  true,
	}
	if err := s.repo.CreateMethod(ctx, method); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipping method")
	}
	return method, nil
}

func (s *service) ListMethods(ctx context.Context) ([]models.ShippingMethod, error) {
	return s.repo.ListMethods(ctx)
}
