package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/internal/shipping"
	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
	"github.com/naledi-labs/storefront-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type creditApplier interface {
	ApplyCredit(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// Request carries the buyer's checkout inputs: per-supplier shipping method
// overrides and the credit amount to spend.
type Request struct {
	UserID          uuid.UUID
	Selections      map[uuid.UUID]uuid.UUID
	CreditRequested decimal.Decimal
}

// Quote is a priced preview of checkout. No order is created and no credit
// moves; it reflects the catalog and cart as of the call.
type Quote struct {
	CartID           uuid.UUID                 `json:"cart_id"`
	Totals           Totals                    `json:"totals"`
	ShippingGroups   []shipping.GroupBreakdown `json:"shipping_groups"`
	ValidationErrors []string                  `json:"validation_errors,omitempty"`
}

// Result is the checkout outcome. Exactly one of Order or ValidationErrors
// is populated: validation problems stop order creation entirely.
type Result struct {
	Order            *models.OrderRecord `json:"order,omitempty"`
	ValidationErrors []string            `json:"validation_errors,omitempty"`
}

// Service runs the checkout pipeline: partition, aggregate shipping, compose
// totals, apply credit, and persist the order, all in one transaction.
type Service interface {
	Quote(ctx context.Context, req Request) (*Quote, error)
	Execute(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	repo       Repository
	aggregator shipping.Aggregator
	credits    creditApplier
	tx         txRunner
	vatRate    decimal.Decimal
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// NewService wires the checkout service. The metrics collector may be nil.
func NewService(
	repo Repository,
	aggregator shipping.Aggregator,
	credits creditApplier,
	tx txRunner,
	vatRate decimal.Decimal,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("shipping aggregator required")
	}
	if credits == nil {
		return nil, fmt.Errorf("credit service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if vatRate.IsNegative() {
		return nil, fmt.Errorf("vat rate cannot be negative")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		aggregator: aggregator,
		credits:    credits,
		tx:         tx,
		vatRate:    vatRate,
		logg:       logg,
		metrics:    checkoutMetrics,
	}, nil
}

// Quote prices the user's active cart without side effects. Validation
// problems come back in the quote rather than as an error so the storefront
// can render them inline.
func (s *service) Quote(ctx context.Context, req Request) (*Quote, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveDuration("quote", time.Since(started)) }()

	if req.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if req.CreditRequested.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit amount cannot be negative")
	}

	cart, err := s.repo.FindActiveCart(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, err
	}

	aggregate, err := s.aggregator.Aggregate(ctx, cart.Items, req.Selections)
	if err != nil {
		s.metrics.IncFailure("quote")
		return nil, err
	}

	quote := &Quote{
		CartID:           cart.ID,
		ShippingGroups:   aggregate.Groups,
		ValidationErrors: aggregate.ValidationErrors,
		Totals:           ComposeTotals(cartSubtotal(cart.Items), aggregate.Total, s.vatRate, req.CreditRequested),
	}
	s.metrics.IncSuccess("quote")
	return quote, nil
}

// Execute converts the user's active cart into an order. The shipping
// aggregation, totals composition, credit debit, order insert, and cart
// conversion all commit or roll back together. When aggregation reports
// validation errors the result carries them and nothing is written.
func (s *service) Execute(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveDuration("execute", time.Since(started)) }()

	if req.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if req.CreditRequested.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit amount cannot be negative")
	}

	ctx = s.logg.WithUserID(ctx, req.UserID.String())

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveCart(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
			}
			return err
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		aggregate, err := s.aggregator.Aggregate(ctx, cart.Items, req.Selections)
		if err != nil {
			return err
		}
		if len(aggregate.ValidationErrors) > 0 {
			result = &Result{ValidationErrors: aggregate.ValidationErrors}
			s.logg.Warn(ctx, "checkout blocked by validation errors")
			return nil
		}
		s.metrics.ObserveGroups(len(aggregate.Groups))

		totals := ComposeTotals(cartSubtotal(cart.Items), aggregate.Total, s.vatRate, req.CreditRequested)

		order := &models.OrderRecord{
			UserID:        req.UserID,
			CartID:        cart.ID,
			Subtotal:      totals.Subtotal,
			ShippingCost:  totals.ShippingCost,
			VATRate:       totals.VATRate,
			VATAmount:     totals.VATAmount,
			CreditApplied: totals.CreditApplied,
			Total:         totals.Total,
			ShippingLines: shippingLines(aggregate.Groups),
		}
		if err := txRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if totals.CreditApplied.IsPositive() {
			if _, err := s.credits.ApplyCredit(ctx, tx, req.UserID, order.ID, totals.CreditApplied); err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientCredit {
					s.metrics.IncInsufficientCredit()
				}
				return err
			}
		}

		if err := txRepo.MarkCartConverted(ctx, cart.ID); err != nil {
			return err
		}

		result = &Result{Order: order}
		return nil
	})
	if err != nil {
		s.metrics.IncFailure("execute")
		return nil, err
	}

	if result.Order != nil {
		ctx = s.logg.WithOrderID(ctx, result.Order.ID.String())
		s.logg.Info(ctx, "order placed")
		s.metrics.IncSuccess("execute")
	} else {
		s.metrics.IncFailure("execute")
	}
	return result, nil
}

func shippingLines(groups []shipping.GroupBreakdown) []models.OrderShippingLine {
	lines := make([]models.OrderShippingLine, 0, len(groups))
	for i, group := range groups {
		lines = append(lines, models.OrderShippingLine{
			SupplierID: group.SupplierID,
			MethodID:   group.MethodID,
			MethodName: group.MethodName,
			Cost:       group.Cost,
			ItemCount:  group.ItemCount,
			Position:   i,
		})
	}
	return lines
}

func cartSubtotal(items []models.CartItem) decimal.Decimal {
	lines := make([]SubtotalLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, SubtotalLine{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	return CartSubtotal(lines)
}
