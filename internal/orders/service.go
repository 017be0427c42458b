package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	"github.com/naledi-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
	"github.com/naledi-labs/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type creditRefunder interface {
	RefundCredit(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, amount decimal.Decimal) (*models.CreditTransaction, error)
}

// OrderPage is one page of a user's order history.
type OrderPage struct {
	Orders     []models.OrderRecord `json:"orders"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// Service exposes order reads and cancellation.
type Service interface {
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderRecord, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderRecord, error)
}

type service struct {
	repo    Repository
	credits creditRefunder
	tx      txRunner
	logg    *logger.Logger
}

// NewService wires the order service.
func NewService(repo Repository, credits creditRefunder, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if credits == nil {
		return nil, fmt.Errorf("credit service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, credits: credits, tx: tx, logg: logg}, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderRecord, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.UserID != userID {
		// Hide other users' orders rather than admitting they exist.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	records, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, err
	}

	page := &OrderPage{Orders: records}
	if len(records) > limit {
		page.Orders = records[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// CancelOrder moves a placed order to canceled and returns any applied
// credit to the buyer's available balance. The status flip and the refund
// share one transaction; the ledger's one-refund-per-order rule makes a
// replayed cancellation fail instead of paying out twice.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderRecord, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var canceled *models.OrderRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPlaced {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s", order.Status))
		}

		now := time.Now().UTC()
		order.Status = enums.OrderStatusCanceled
		order.CanceledAt = &now
		if err := txRepo.UpdateStatus(ctx, order); err != nil {
			return err
		}

		if order.CreditApplied.IsPositive() {
			if _, err := s.credits.RefundCredit(ctx, tx, userID, orderID, order.CreditApplied); err != nil {
				return err
			}
		}

		canceled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "order canceled")
	return canceled, nil
}
