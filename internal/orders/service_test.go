package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	"github.com/naledi-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
	"github.com/naledi-labs/storefront-backend/pkg/pagination"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	order   *models.OrderRecord
	updated *models.OrderRecord
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.OrderRecord, error) {
	if f.order == nil || f.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.order, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.OrderRecord, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, order *models.OrderRecord) error {
	f.updated = order
	return nil
}

type fakeRefunder struct {
	refunded decimal.Decimal
	orderID  uuid.UUID
	calls    int
	err      error
}

func (f *fakeRefunder) RefundCredit(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, amount decimal.Decimal) (*models.CreditTransaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.refunded = amount
	f.orderID = orderID
	return &models.CreditTransaction{Type: enums.CreditTransactionRefunded, Amount: amount}, nil
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(t *testing.T, repo Repository, refunder creditRefunder) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(repo, refunder, &fakeTxRunner{}, logg)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func placedOrder(userID uuid.UUID, creditApplied string) *models.OrderRecord {
	return &models.OrderRecord{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusPlaced,
		CreditApplied: dec(creditApplied),
		Total:         dec("653.83"),
	}
}

func TestCancelOrder_RefundsAppliedCredit(t *testing.T) {
	userID := uuid.New()
	order := placedOrder(userID, "150.00")
	repo := &fakeRepo{order: order}
	refunder := &fakeRefunder{}
	svc := newTestService(t, repo, refunder)

	canceled, err := svc.CancelOrder(context.Background(), userID, order.ID)
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if canceled.Status != enums.OrderStatusCanceled || canceled.CanceledAt == nil {
		t.Fatalf("order not canceled: %+v", canceled)
	}
	if repo.updated == nil {
		t.Fatal("status update not persisted")
	}
	if !refunder.refunded.Equal(dec("150.00")) || refunder.orderID != order.ID {
		t.Fatalf("refund mismatch: %s for %s", refunder.refunded, refunder.orderID)
	}
}

func TestCancelOrder_NoCreditNoRefund(t *testing.T) {
	userID := uuid.New()
	order := placedOrder(userID, "0")
	repo := &fakeRepo{order: order}
	refunder := &fakeRefunder{}
	svc := newTestService(t, repo, refunder)

	_, err := svc.CancelOrder(context.Background(), userID, order.ID)
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if refunder.calls != 0 {
		t.Fatal("no refund should happen when no credit was applied")
	}
}

func TestCancelOrder_AlreadyCanceled(t *testing.T) {
	userID := uuid.New()
	order := placedOrder(userID, "150.00")
	order.Status = enums.OrderStatusCanceled
	repo := &fakeRepo{order: order}
	refunder := &fakeRefunder{}
	svc := newTestService(t, repo, refunder)

	_, err := svc.CancelOrder(context.Background(), userID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if refunder.calls != 0 {
		t.Fatal("refund must not run for a canceled order")
	}
}

func TestCancelOrder_RefundConflictAborts(t *testing.T) {
	userID := uuid.New()
	order := placedOrder(userID, "150.00")
	repo := &fakeRepo{order: order}
	refunder := &fakeRefunder{err: pkgerrors.New(pkgerrors.CodeConflict, "order already refunded")}
	svc := newTestService(t, repo, refunder)

	_, err := svc.CancelOrder(context.Background(), userID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetOrder_OtherUsersOrderHidden(t *testing.T) {
	order := placedOrder(uuid.New(), "0")
	repo := &fakeRepo{order: order}
	svc := newTestService(t, repo, &fakeRefunder{})

	_, err := svc.GetOrder(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}
}
