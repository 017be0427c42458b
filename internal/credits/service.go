package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db"
	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	"github.com/naledi-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/naledi-labs/storefront-backend/pkg/errors"
	"github.com/naledi-labs/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Balance is the spendable-credit view returned to callers. A user with no
// balance row reads as zero on both fields.
type Balance struct {
	UserID           uuid.UUID       `json:"user_id"`
	TotalCredits     decimal.Decimal `json:"total_credits"`
	AvailableCredits decimal.Decimal `json:"available_credits"`
}

// TransactionPage is one page of a user's ledger history.
type TransactionPage struct {
	Transactions []models.CreditTransaction `json:"transactions"`
	NextCursor   string                     `json:"next_cursor,omitempty"`
}

// Service owns the credit ledger. ApplyCredit and RefundCredit accept an
// optional transaction so checkout and cancellation can bind the balance
// mutation to the surrounding order write.
type Service interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*Balance, error)
	EarnCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.CreditTransaction, error)
	ApplyCredit(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	RefundCredit(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, amount decimal.Decimal) (*models.CreditTransaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error)
	Reconcile(ctx context.Context) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the credit ledger service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("credits repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetBalance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	balance, err := s.repo.FindBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Balance{UserID: userID, TotalCredits: decimal.Zero, AvailableCredits: decimal.Zero}, nil
		}
		return nil, err
	}
	return &Balance{
		UserID:           balance.UserID,
		TotalCredits:     balance.TotalCredits,
		AvailableCredits: balance.AvailableCredits,
	}, nil
}

// EarnCredit grants credit, raising both total and available, and appends an
// earned ledger row in the same transaction.
func (s *service) EarnCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.CreditTransaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}

	txn := &models.CreditTransaction{
		UserID:      userID,
		Type:        enums.CreditTransactionEarned,
		Amount:      amount,
		Description: description,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.EnsureBalance(ctx, userID); err != nil {
			return err
		}
		if err := txRepo.CreditEarned(ctx, userID, amount); err != nil {
			return err
		}
		return txRepo.AppendTransaction(ctx, txn)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "earn credit")
	}
	return txn, nil
}

// ApplyCredit debits the user's available balance for an order and records a
// used ledger row. The debit is conditional: when the balance cannot cover
// the amount, nothing changes and the error carries the amount that was
// available. A zero amount is a no-op that applies nothing.
func (s *service) ApplyCredit(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if amount.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "credit amount cannot be negative")
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	apply := func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		debited, err := txRepo.DebitAvailable(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !debited {
			available := decimal.Zero
			if balance, err := txRepo.FindBalance(ctx, userID); err == nil {
				available = balance.AvailableCredits
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientCredit, "insufficient credit balance").
				WithDetails(map[string]string{
					"requested": amount.StringFixed(2),
					"available": available.StringFixed(2),
				})
		}

		return txRepo.AppendTransaction(ctx, &models.CreditTransaction{
			UserID:      userID,
			OrderID:     &orderID,
			Type:        enums.CreditTransactionUsed,
			Amount:      amount,
			Description: fmt.Sprintf("Credit applied to order %s", orderID),
		})
	}

	var err error
	if tx != nil {
		err = apply(tx)
	} else {
		err = s.tx.WithTx(ctx, apply)
	}
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return decimal.Zero, typed
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply credit")
	}
	return amount, nil
}

// RefundCredit returns previously applied credit for an order. At most one
// refund row may exist per order; a second attempt is rejected before any
// balance change, and the partial unique index backstops races.
func (s *service) RefundCredit(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, amount decimal.Decimal) (*models.CreditTransaction, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	txn := &models.CreditTransaction{
		UserID:      userID,
		OrderID:     &orderID,
		Type:        enums.CreditTransactionRefunded,
		Amount:      amount,
		Description: fmt.Sprintf("Credit refunded for order %s", orderID),
	}
	refund := func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		refunded, err := txRepo.HasRefundForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if refunded {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order %s already refunded", orderID))
		}

		if err := txRepo.CreditAvailable(ctx, userID, amount); err != nil {
			return err
		}
		if err := txRepo.AppendTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order %s already refunded", orderID))
			}
			return err
		}
		return nil
	}

	var err error
	if tx != nil {
		err = refund(tx)
	} else {
		err = s.tx.WithTx(ctx, refund)
	}
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund credit")
	}
	return txn, nil
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	txns, err := s.repo.ListTransactions(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, err
	}

	page := &TransactionPage{Transactions: txns}
	if len(txns) > limit {
		page.Transactions = txns[:limit]
		last := page.Transactions[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// Reconcile replays every user's ledger and checks that earned plus refunded
// minus used equals the stored available balance. All drift findings are
// combined so one bad user does not hide the rest.
func (s *service) Reconcile(ctx context.Context) error {
	balances, err := s.repo.ListBalances(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list balances")
	}

	var drift error
	for _, balance := range balances {
		txns, err := s.repo.ListUserTransactions(ctx, balance.UserID)
		if err != nil {
			drift = multierr.Append(drift, fmt.Errorf("user %s: load transactions: %w", balance.UserID, err))
			continue
		}

		sum := decimal.Zero
		for _, txn := range txns {
			switch txn.Type {
			case enums.CreditTransactionEarned, enums.CreditTransactionRefunded:
				sum = sum.Add(txn.Amount)
			case enums.CreditTransactionUsed:
				sum = sum.Sub(txn.Amount)
			default:
				drift = multierr.Append(drift, fmt.Errorf("user %s: transaction %s has unknown type %q", balance.UserID, txn.ID, txn.Type))
			}
		}
		if !sum.Equal(balance.AvailableCredits) {
			drift = multierr.Append(drift, fmt.Errorf(
				"user %s: ledger sum %s does not match available balance %s",
				balance.UserID, sum.StringFixed(2), balance.AvailableCredits.StringFixed(2)))
		}
	}
	return drift
}
