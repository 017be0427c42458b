package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naledi-labs/storefront-backend/api/middleware"
	"github.com/naledi-labs/storefront-backend/api/responses"
	"github.com/naledi-labs/storefront-backend/api/validators"
	checkoutsvc "github.com/naledi-labs/storefront-backend/internal/checkout"
	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	// Selections maps supplier id to the chosen shipping method id.
	Selections   map[string]string `json:"selections,omitempty"`
	CreditAmount decimal.Decimal   `json:"credit_amount"`
}

type shippingLineResponse struct {
	SupplierID uuid.UUID       `json:"supplier_id"`
	MethodID   uuid.UUID       `json:"method_id"`
	MethodName string          `json:"method_name"`
	Cost       decimal.Decimal `json:"cost"`
	ItemCount  int             `json:"item_count"`
}

type orderResponse struct {
	OrderID       uuid.UUID              `json:"order_id"`
	Status        string                 `json:"status"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	ShippingCost  decimal.Decimal        `json:"shipping_cost"`
	VATRate       decimal.Decimal        `json:"vat_rate"`
	VATAmount     decimal.Decimal        `json:"vat_amount"`
	CreditApplied decimal.Decimal        `json:"credit_applied"`
	Total         decimal.Decimal        `json:"total"`
	ShippingLines []shippingLineResponse `json:"shipping_lines"`
	CanceledAt    *time.Time             `json:"canceled_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

type checkoutResponse struct {
	Order            *orderResponse `json:"order,omitempty"`
	ValidationErrors []string       `json:"validation_errors,omitempty"`
}

// Checkout converts the caller's active cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		req, err := decodeCheckoutRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), *req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Order == nil {
			// Checkout was blocked; nothing was charged or created.
			responses.WriteSuccessStatus(w, http.StatusUnprocessableEntity, checkoutResponse{
				ValidationErrors: result.ValidationErrors,
			})
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order: newOrderResponse(result.Order),
		})
	}
}

// CheckoutQuote prices the cart without creating anything.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		req, err := decodeCheckoutRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), *req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

func decodeCheckoutRequest(r *http.Request) (*checkoutsvc.Request, error) {
	var payload checkoutRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return nil, err
	}

	selections, err := parseSelections(payload.Selections)
	if err != nil {
		return nil, err
	}

	return &checkoutsvc.Request{
		UserID:          middleware.UserIDFromContext(r.Context()),
		Selections:      selections,
		CreditRequested: payload.CreditAmount,
	}, nil
}

func parseSelections(raw map[string]string) (map[uuid.UUID]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	selections := make(map[uuid.UUID]uuid.UUID, len(raw))
	for supplier, method := range raw {
		supplierID, err := uuid.Parse(supplier)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection supplier id must be a uuid").
				WithDetails(map[string]any{"supplier_id": supplier})
		}
		methodID, err := uuid.Parse(method)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection method id must be a uuid").
				WithDetails(map[string]any{"method_id": method})
		}
		selections[supplierID] = methodID
	}
	return selections, nil
}

func newOrderResponse(order *models.OrderRecord) *orderResponse {
	lines := make([]shippingLineResponse, 0, len(order.ShippingLines))
	for _, line := range order.ShippingLines {
		lines = append(lines, shippingLineResponse{
			SupplierID: line.SupplierID,
			MethodID:   line.MethodID,
			MethodName: line.MethodName,
			Cost:       line.Cost,
			ItemCount:  line.ItemCount,
		})
	}
	return &orderResponse{
		OrderID:       order.ID,
		Status:        order.Status.String(),
		Subtotal:      order.Subtotal,
		ShippingCost:  order.ShippingCost,
		VATRate:       order.VATRate,
		VATAmount:     order.VATAmount,
		CreditApplied: order.CreditApplied,
		Total:         order.Total,
		ShippingLines: lines,
		CanceledAt:    order.CanceledAt,
		CreatedAt:     order.CreatedAt,
	}
}
