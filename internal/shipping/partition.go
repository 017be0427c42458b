package shipping

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
)

// SupplierGroup is the subset of a cart's items attributable to one supplier.
type SupplierGroup struct {
	SupplierID uuid.UUID
	Items      []models.CartItem
}

// PartitionBySupplier groups cart items by the supplier that currently owns
// each referenced product. Groups come back in first-encounter order, which
// fixes invoice line ordering downstream. Items whose product is missing or
// has no supplier are excluded from every group and reported as validation
// errors; a bad item never aborts partitioning of the rest.
func PartitionBySupplier(items []models.CartItem, productsByID map[uuid.UUID]*models.Product) ([]SupplierGroup, []string) {
	var groups []SupplierGroup
	var errs []string
	indexBySupplier := map[uuid.UUID]int{}

	for _, item := range items {
		product, ok := productsByID[item.ProductID]
		if !ok || product == nil {
			errs = append(errs, fmt.Sprintf("Product %s no longer exists", item.ProductID))
			continue
		}
		if product.SupplierID == nil {
			errs = append(errs, fmt.Sprintf("Product %s has no supplier assigned", product.ID))
			continue
		}

		supplierID := *product.SupplierID
		idx, seen := indexBySupplier[supplierID]
		if !seen {
			groups = append(groups, SupplierGroup{SupplierID: supplierID})
			idx = len(groups) - 1
			indexBySupplier[supplierID] = idx
		}
		groups[idx].Items = append(groups[idx].Items, item)
	}

	return groups, errs
}
