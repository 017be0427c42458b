package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naledi-labs/storefront-backend/internal/suppliers"
	"github.com/naledi-labs/storefront-backend/pkg/db/models"
)

type fakeCatalog struct {
	methods map[uuid.UUID][]suppliers.ApplicableMethod
	err     error
}

func (f *fakeCatalog) ResolveApplicableMethods(ctx context.Context, supplierID uuid.UUID) ([]suppliers.ApplicableMethod, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.methods[supplierID], nil
}

type fakeProducts struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func method(id uuid.UUID, name, price string, isDefault bool) suppliers.ApplicableMethod {
	return suppliers.ApplicableMethod{
		MethodID:       id,
		Name:           name,
		EffectivePrice: dec(price),
		IsDefault:      isDefault,
	}
}

func TestAggregate_OneChargePerSupplierGroup(t *testing.T) {
	supplierA, supplierB := uuid.New(), uuid.New()
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	methodA, methodB := uuid.New(), uuid.New()

	catalog := &fakeCatalog{methods: map[uuid.UUID][]suppliers.ApplicableMethod{
		supplierA: {method(methodA, "Standard", "85.00", true)},
		supplierB: {method(methodB, "Courier", "120.00", true)},
	}}
	loader := &fakeProducts{products: map[uuid.UUID]models.Product{
		p1: {ID: p1, SupplierID: &supplierA},
		p2: {ID: p2, SupplierID: &supplierA},
		p3: {ID: p3, SupplierID: &supplierB},
	}}

	agg, err := NewAggregator(catalog, loader)
	if err != nil {
		t.Fatalf("unexpected aggregator error: %v", err)
	}

	items := []models.CartItem{
		{ProductID: p1},
		{ProductID: p2},
		{ProductID: p3},
	}
	result, err := agg.Aggregate(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if len(result.ValidationErrors) != 0 {
		t.Fatalf("unexpected validation errors: %v", result.ValidationErrors)
	}
	if !result.Total.Equal(dec("205.00")) {
		t.Fatalf("total mismatch: got %s want 205.00", result.Total)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	if result.Groups[0].SupplierID != supplierA || result.Groups[0].ItemCount != 2 {
		t.Fatalf("first group mismatch: %+v", result.Groups[0])
	}
	if result.Groups[1].SupplierID != supplierB || result.Groups[1].ItemCount != 1 {
		t.Fatalf("second group mismatch: %+v", result.Groups[1])
	}
	if !result.Groups[0].Cost.Equal(dec("85.00")) || !result.Groups[1].Cost.Equal(dec("120.00")) {
		t.Fatalf("group costs mismatch: %s / %s", result.Groups[0].Cost, result.Groups[1].Cost)
	}
}

func TestAggregate_ExplicitSelectionOverridesDefault(t *testing.T) {
	supplierA := uuid.New()
	p1 := uuid.New()
	cheap, express := uuid.New(), uuid.New()

	catalog := &fakeCatalog{methods: map[uuid.UUID][]suppliers.ApplicableMethod{
		supplierA: {
			method(cheap, "Economy", "40.00", true),
			method(express, "Express", "150.00", false),
		},
	}}
	loader := &fakeProducts{products: map[uuid.UUID]models.Product{
		p1: {ID: p1, SupplierID: &supplierA},
	}}

	agg, _ := NewAggregator(catalog, loader)
	result, err := agg.Aggregate(context.Background(), []models.CartItem{{ProductID: p1}}, map[uuid.UUID]uuid.UUID{
		supplierA: express,
	})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if !result.Total.Equal(dec("150.00")) {
		t.Fatalf("explicit selection ignored: total %s", result.Total)
	}
	if result.Groups[0].MethodID != express {
		t.Fatalf("expected express method, got %s", result.Groups[0].MethodID)
	}
}

func TestAggregate_InvalidExplicitSelection(t *testing.T) {
	supplierA := uuid.New()
	p1 := uuid.New()

	catalog := &fakeCatalog{methods: map[uuid.UUID][]suppliers.ApplicableMethod{
		supplierA: {method(uuid.New(), "Economy", "40.00", true)},
	}}
	loader := &fakeProducts{products: map[uuid.UUID]models.Product{
		p1: {ID: p1, SupplierID: &supplierA},
	}}

	agg, _ := NewAggregator(catalog, loader)
	result, err := agg.Aggregate(context.Background(), []models.CartItem{{ProductID: p1}}, map[uuid.UUID]uuid.UUID{
		supplierA: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if len(result.Groups) != 0 {
		t.Fatalf("invalid selection should not produce a group: %+v", result.Groups)
	}
	if len(result.ValidationErrors) != 1 {
		t.Fatalf("expected one validation error, got %v", result.ValidationErrors)
	}
	want := "Selected shipping method is not available for supplier " + supplierA.String()
	if result.ValidationErrors[0] != want {
		t.Fatalf("error mismatch: got %q want %q", result.ValidationErrors[0], want)
	}
	if !result.Total.IsZero() {
		t.Fatalf("unresolved group must not contribute cost: %s", result.Total)
	}
}

func TestAggregate_NoDefaultFallsBackToFirst(t *testing.T) {
	supplierA := uuid.New()
	p1 := uuid.New()
	first, second := uuid.New(), uuid.New()

	catalog := &fakeCatalog{methods: map[uuid.UUID][]suppliers.ApplicableMethod{
		supplierA: {
			method(first, "Economy", "40.00", false),
			method(second, "Express", "150.00", false),
		},
	}}
	loader := &fakeProducts{products: map[uuid.UUID]models.Product{
		p1: {ID: p1, SupplierID: &supplierA},
	}}

	agg, _ := NewAggregator(catalog, loader)
	result, err := agg.Aggregate(context.Background(), []models.CartItem{{ProductID: p1}}, nil)
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if result.Groups[0].MethodID != first {
		t.Fatalf("expected first applicable method, got %s", result.Groups[0].MethodID)
	}
}

func TestAggregate_SupplierWithoutMethods(t *testing.T) {
	supplierA := uuid.New()
	p1 := uuid.New()

	catalog := &fakeCatalog{methods: map[uuid.UUID][]suppliers.ApplicableMethod{}}
	loader := &fakeProducts{products: map[uuid.UUID]models.Product{
		p1: {ID: p1, SupplierID: &supplierA},
	}}

	agg, _ := NewAggregator(catalog, loader)
	result, err := agg.Aggregate(context.Background(), []models.CartItem{{ProductID: p1}}, nil)
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	want := "Supplier " + supplierA.String() + " has no enabled shipping methods"
	if len(result.ValidationErrors) != 1 || result.ValidationErrors[0] != want {
		t.Fatalf("error mismatch: %v", result.ValidationErrors)
	}
}

func TestAggregate_EmptyCart(t *testing.T) {
	agg, _ := NewAggregator(&fakeCatalog{}, &fakeProducts{})
	result, err := agg.Aggregate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if !result.Total.IsZero() || len(result.Groups) != 0 || len(result.ValidationErrors) != 0 {
		t.Fatalf("empty cart should produce zero result: %+v", result)
	}
}

func TestValidateSelection(t *testing.T) {
	supplierA, supplierB := uuid.New(), uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	methodA := uuid.New()

	catalog := &fakeCatalog{methods: map[uuid.UUID][]suppliers.ApplicableMethod{
		supplierA: {method(methodA, "Standard", "85.00", true)},
		supplierB: {method(uuid.New(), "Courier", "120.00", true)},
	}}
	loader := &fakeProducts{products: map[uuid.UUID]models.Product{
		p1: {ID: p1, SupplierID: &supplierA},
		p2: {ID: p2, SupplierID: &supplierB},
	}}

	agg, _ := NewAggregator(catalog, loader)
	items := []models.CartItem{{ProductID: p1}, {ProductID: p2}}

	errs, err := agg.ValidateSelection(context.Background(), items, map[uuid.UUID]uuid.UUID{
		supplierA: methodA,
	})
	if err != nil {
		t.Fatalf("ValidateSelection error: %v", err)
	}
	want := "No shipping method selected for supplier " + supplierB.String()
	if len(errs) != 1 || errs[0] != want {
		t.Fatalf("expected missing-selection error, got %v", errs)
	}
}
