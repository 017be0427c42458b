package suppliers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepository struct {
	supplier  *models.Supplier
	method    *models.ShippingMethod
	links     []models.SupplierShippingMethod
	link      *models.SupplierShippingMethod
	cleared   []uuid.UUID
	defaulted []uuid.UUID
	updated   *models.SupplierShippingMethod
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if f.supplier == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.supplier, nil
}

func (f *fakeRepository) FindMethod(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	if f.method == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.method, nil
}

func (f *fakeRepository) ListMethods(ctx context.Context) ([]models.ShippingMethod, error) {
	return nil, nil
}

func (f *fakeRepository) CreateMethod(ctx context.Context, method *models.ShippingMethod) error {
	return nil
}

func (f *fakeRepository) ListLinks(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierShippingMethod, error) {
	return f.links, nil
}

func (f *fakeRepository) FindLink(ctx context.Context, supplierID, methodID uuid.UUID) (*models.SupplierShippingMethod, error) {
	if f.link == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.link, nil
}

func (f *fakeRepository) CreateLink(ctx context.Context, link *models.SupplierShippingMethod) error {
	return nil
}

func (f *fakeRepository) UpdateLink(ctx context.Context, link *models.SupplierShippingMethod) error {
	f.updated = link
	return nil
}

func (f *fakeRepository) ClearDefaults(ctx context.Context, supplierID uuid.UUID) error {
	f.cleared = append(f.cleared, supplierID)
	return nil
}

func (f *fakeRepository) SetDefault(ctx context.Context, linkID uuid.UUID) error {
	f.defaulted = append(f.defaulted, linkID)
	return nil
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func activeMethod(name, price string) *models.ShippingMethod {
	return &models.ShippingMethod{ID: uuid.New(), Name: name, BasePrice: dec(price), IsActive: true}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestResolveApplicableMethods_PriceOverride(t *testing.T) {
	supplierID := uuid.New()
	base := activeMethod("Standard", "85.00")
	overridden := activeMethod("Courier", "120.00")

	repo := &fakeRepository{
		supplier: &models.Supplier{ID: supplierID, IsActive: true},
		links: []models.SupplierShippingMethod{
			{SupplierID: supplierID, MethodID: base.ID, IsEnabled: true, IsDefault: true, Method: base},
			{SupplierID: supplierID, MethodID: overridden.ID, IsEnabled: true, CustomPrice: decPtr("99.50"), Method: overridden},
		},
	}
	svc := newTestService(t, repo)

	applicable, err := svc.ResolveApplicableMethods(context.Background(), supplierID)
	if err != nil {
		t.Fatalf("ResolveApplicableMethods error: %v", err)
	}
	if len(applicable) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(applicable))
	}
	if !applicable[0].EffectivePrice.Equal(dec("85.00")) {
		t.Fatalf("base price mismatch: %s", applicable[0].EffectivePrice)
	}
	if !applicable[1].EffectivePrice.Equal(dec("99.50")) {
		t.Fatalf("override not applied: %s", applicable[1].EffectivePrice)
	}
	if !applicable[0].IsDefault || applicable[1].IsDefault {
		t.Fatalf("default flags mismatch: %+v", applicable)
	}
}

func TestResolveApplicableMethods_FiltersDisabledAndInactive(t *testing.T) {
	supplierID := uuid.New()
	enabled := activeMethod("Standard", "85.00")
	inactive := activeMethod("Retired", "10.00")
	inactive.IsActive = false
	disabledLinkMethod := activeMethod("Courier", "120.00")

	repo := &fakeRepository{
		supplier: &models.Supplier{ID: supplierID, IsActive: true},
		links: []models.SupplierShippingMethod{
			{SupplierID: supplierID, MethodID: enabled.ID, IsEnabled: true, Method: enabled},
			{SupplierID: supplierID, MethodID: inactive.ID, IsEnabled: true, Method: inactive},
			{SupplierID: supplierID, MethodID: disabledLinkMethod.ID, IsEnabled: false, Method: disabledLinkMethod},
		},
	}
	svc := newTestService(t, repo)

	applicable, err := svc.ResolveApplicableMethods(context.Background(), supplierID)
	if err != nil {
		t.Fatalf("ResolveApplicableMethods error: %v", err)
	}
	if len(applicable) != 1 || applicable[0].MethodID != enabled.ID {
		t.Fatalf("filtering mismatch: %+v", applicable)
	}
}

func TestResolveApplicableMethods_DanglingMethod(t *testing.T) {
	supplierID := uuid.New()
	repo := &fakeRepository{
		supplier: &models.Supplier{ID: supplierID, IsActive: true},
		links: []models.SupplierShippingMethod{
			{SupplierID: supplierID, MethodID: uuid.New(), IsEnabled: true, Method: nil},
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.ResolveApplicableMethods(context.Background(), supplierID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for dangling method, got %v", err)
	}
}

func TestSetDefaultMethod_ClearsPreviousDefault(t *testing.T) {
	supplierID, methodID := uuid.New(), uuid.New()
	link := &models.SupplierShippingMethod{ID: uuid.New(), SupplierID: supplierID, MethodID: methodID, IsEnabled: true}
	repo := &fakeRepository{link: link}
	svc := newTestService(t, repo)

	if err := svc.SetDefaultMethod(context.Background(), supplierID, methodID); err != nil {
		t.Fatalf("SetDefaultMethod error: %v", err)
	}
	if len(repo.cleared) != 1 || repo.cleared[0] != supplierID {
		t.Fatalf("previous defaults not cleared: %v", repo.cleared)
	}
	if len(repo.defaulted) != 1 || repo.defaulted[0] != link.ID {
		t.Fatalf("new default not set: %v", repo.defaulted)
	}
}

func TestSetDefaultMethod_RejectsDisabledLink(t *testing.T) {
	supplierID, methodID := uuid.New(), uuid.New()
	link := &models.SupplierShippingMethod{ID: uuid.New(), SupplierID: supplierID, MethodID: methodID, IsEnabled: false}
	repo := &fakeRepository{link: link}
	svc := newTestService(t, repo)

	err := svc.SetDefaultMethod(context.Background(), supplierID, methodID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.defaulted) != 0 {
		t.Fatal("disabled link must not become the default")
	}
}

func TestSetMethodEnabled_DisablingClearsDefault(t *testing.T) {
	supplierID, methodID := uuid.New(), uuid.New()
	link := &models.SupplierShippingMethod{ID: uuid.New(), SupplierID: supplierID, MethodID: methodID, IsEnabled: true, IsDefault: true}
	repo := &fakeRepository{link: link}
	svc := newTestService(t, repo)

	if err := svc.SetMethodEnabled(context.Background(), supplierID, methodID, false); err != nil {
		t.Fatalf("SetMethodEnabled error: %v", err)
	}
	if repo.updated == nil || repo.updated.IsEnabled || repo.updated.IsDefault {
		t.Fatalf("disable must clear the default flag: %+v", repo.updated)
	}
}

func TestSetCustomPrice_RejectsNegative(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	err := svc.SetCustomPrice(context.Background(), uuid.New(), uuid.New(), decPtr("-5.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
