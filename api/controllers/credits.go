package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naledi-labs/storefront-backend/api/middleware"
	"github.com/naledi-labs/storefront-backend/api/responses"
	"github.com/naledi-labs/storefront-backend/api/validators"
	creditsvc "github.com/naledi-labs/storefront-backend/internal/credits"
	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
	"github.com/naledi-labs/storefront-backend/pkg/pagination"
)

type earnCreditRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=255"`
}

type creditTransactionResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     *uuid.UUID      `json:"order_id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

type creditTransactionsResponse struct {
	Transactions []creditTransactionResponse `json:"transactions"`
	NextCursor   string                      `json:"next_cursor,omitempty"`
}

// CreditBalance returns the caller's total and available credits.
func CreditBalance(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credits service unavailable"))
			return
		}

		balance, err := svc.GetBalance(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// CreditTransactions lists the caller's ledger history, newest first.
func CreditTransactions(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credits service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListTransactions(r.Context(), middleware.UserIDFromContext(r.Context()), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, creditTransactionsResponse{
			Transactions: newTransactionResponses(page.Transactions),
			NextCursor:   page.NextCursor,
		})
	}
}

// CreditEarn grants credit to the caller, e.g. a promotion or a goodwill
// payout triggered through the back office.
func CreditEarn(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credits service unavailable"))
			return
		}

		var payload earnCreditRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.EarnCredit(r.Context(), middleware.UserIDFromContext(r.Context()), payload.Amount, payload.Description)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionResponse(txn))
	}
}

func newTransactionResponse(txn *models.CreditTransaction) creditTransactionResponse {
	return creditTransactionResponse{
		ID:          txn.ID,
		OrderID:     txn.OrderID,
		Type:        txn.Type.String(),
		Amount:      txn.Amount,
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	}
}

func newTransactionResponses(txns []models.CreditTransaction) []creditTransactionResponse {
	out := make([]creditTransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, newTransactionResponse(&txns[i]))
	}
	return out
}
