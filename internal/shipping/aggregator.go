package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naledi-labs/storefront-backend/internal/suppliers"
	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
)

type catalogResolver interface {
	ResolveApplicableMethods(ctx context.Context, supplierID uuid.UUID) ([]suppliers.ApplicableMethod, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// GroupBreakdown reports the shipping charge resolved for one supplier group.
type GroupBreakdown struct {
	SupplierID uuid.UUID       `json:"supplier_id"`
	MethodID   uuid.UUID       `json:"method_id"`
	MethodName string          `json:"method_name"`
	Cost       decimal.Decimal `json:"cost"`
	ItemCount  int             `json:"item_count"`
}

// AggregateResult is the combined shipping outcome for a whole cart.
// Groups appear in the partitioner's first-encounter order. A non-empty
// ValidationErrors list means checkout must not proceed; the totals cover
// only the groups that resolved.
type AggregateResult struct {
	Total            decimal.Decimal  `json:"total"`
	Groups           []GroupBreakdown `json:"groups"`
	ValidationErrors []string         `json:"validation_errors"`
}

// Aggregator resolves shipping per supplier group and sums a cart-level cost.
type Aggregator interface {
	ResolveApplicableMethods(ctx context.Context, supplierID uuid.UUID) ([]suppliers.ApplicableMethod, error)
	SelectMethodForGroup(ctx context.Context, supplierID uuid.UUID, explicit *uuid.UUID) (*suppliers.ApplicableMethod, error)
	Aggregate(ctx context.Context, items []models.CartItem, selections map[uuid.UUID]uuid.UUID) (*AggregateResult, error)
	ValidateSelection(ctx context.Context, items []models.CartItem, selections map[uuid.UUID]uuid.UUID) ([]string, error)
}

type aggregator struct {
	catalog  catalogResolver
	products productLoader
}

// NewAggregator wires the shipping aggregator.
func NewAggregator(catalog catalogResolver, products productLoader) (Aggregator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("supplier catalog required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &aggregator{catalog: catalog, products: products}, nil
}

func (a *aggregator) ResolveApplicableMethods(ctx context.Context, supplierID uuid.UUID) ([]suppliers.ApplicableMethod, error) {
	return a.catalog.ResolveApplicableMethods(ctx, supplierID)
}

// SelectMethodForGroup picks the shipping method for one supplier group:
// the explicit selection when given, else the supplier's enabled default,
// else the first applicable method in returned order. An unresolvable group
// surfaces as a validation error.
func (a *aggregator) SelectMethodForGroup(ctx context.Context, supplierID uuid.UUID, explicit *uuid.UUID) (*suppliers.ApplicableMethod, error) {
	applicable, err := a.catalog.ResolveApplicableMethods(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	selected, reason := selectFromApplicable(supplierID, applicable, explicit)
	if reason != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, reason)
	}
	return selected, nil
}

// Aggregate partitions the cart, selects a method per group, and sums one
// charge per supplier group. Validation problems accumulate across all
// groups so the caller can present every issue at once.
func (a *aggregator) Aggregate(ctx context.Context, items []models.CartItem, selections map[uuid.UUID]uuid.UUID) (*AggregateResult, error) {
	result := &AggregateResult{Total: decimal.Zero}
	if len(items) == 0 {
		return result, nil
	}

	productsByID, err := a.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	groups, errs := PartitionBySupplier(items, productsByID)
	result.ValidationErrors = errs

	for _, group := range groups {
		applicable, err := a.catalog.ResolveApplicableMethods(ctx, group.SupplierID)
		if err != nil {
			return nil, err
		}

		explicit := explicitSelection(selections, group.SupplierID)
		selected, reason := selectFromApplicable(group.SupplierID, applicable, explicit)
		if reason != "" {
			result.ValidationErrors = append(result.ValidationErrors, reason)
			continue
		}

		// One charge per supplier group, regardless of item count.
		result.Groups = append(result.Groups, GroupBreakdown{
			SupplierID: group.SupplierID,
			MethodID:   selected.MethodID,
			MethodName: selected.Name,
			Cost:       selected.EffectivePrice,
			ItemCount:  len(group.Items),
		})
		result.Total = result.Total.Add(selected.EffectivePrice)
	}

	return result, nil
}

// ValidateSelection confirms every supplier in the cart has a usable method
// selection without computing any cost. Used to gate checkout submission.
func (a *aggregator) ValidateSelection(ctx context.Context, items []models.CartItem, selections map[uuid.UUID]uuid.UUID) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	productsByID, err := a.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	groups, errs := PartitionBySupplier(items, productsByID)
	for _, group := range groups {
		methodID, ok := selections[group.SupplierID]
		if !ok {
			errs = append(errs, fmt.Sprintf("No shipping method selected for supplier %s", group.SupplierID))
			continue
		}

		applicable, err := a.catalog.ResolveApplicableMethods(ctx, group.SupplierID)
		if err != nil {
			return nil, err
		}
		if findApplicable(applicable, methodID) == nil {
			errs = append(errs, fmt.Sprintf("Selected shipping method is not available for supplier %s", group.SupplierID))
		}
	}
	return errs, nil
}

func (a *aggregator) loadProducts(ctx context.Context, items []models.CartItem) (map[uuid.UUID]*models.Product, error) {
	seen := map[uuid.UUID]struct{}{}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	loaded, err := a.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	productsByID := make(map[uuid.UUID]*models.Product, len(loaded))
	for i := range loaded {
		productsByID[loaded[i].ID] = &loaded[i]
	}
	return productsByID, nil
}

// selectFromApplicable applies the selection policy for one supplier group.
// Defaults and enablement are always evaluated per (supplier, method) pair;
// two suppliers sharing a method id stay independent.
func selectFromApplicable(supplierID uuid.UUID, applicable []suppliers.ApplicableMethod, explicit *uuid.UUID) (*suppliers.ApplicableMethod, string) {
	if len(applicable) == 0 {
		return nil, fmt.Sprintf("Supplier %s has no enabled shipping methods", supplierID)
	}

	if explicit != nil {
		if found := findApplicable(applicable, *explicit); found != nil {
			return found, ""
		}
		return nil, fmt.Sprintf("Selected shipping method is not available for supplier %s", supplierID)
	}

	for i := range applicable {
		if applicable[i].IsDefault {
			return &applicable[i], ""
		}
	}
	return &applicable[0], ""
}

func findApplicable(applicable []suppliers.ApplicableMethod, methodID uuid.UUID) *suppliers.ApplicableMethod {
	for i := range applicable {
		if applicable[i].MethodID == methodID {
			return &applicable[i]
		}
	}
	return nil
}

func explicitSelection(selections map[uuid.UUID]uuid.UUID, supplierID uuid.UUID) *uuid.UUID {
	if selections == nil {
		return nil
	}
	if methodID, ok := selections[supplierID]; ok {
		return &methodID
	}
	return nil
}
