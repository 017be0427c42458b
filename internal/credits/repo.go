package credits

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	"github.com/naledi-labs/storefront-backend/pkg/enums"
	"github.com/naledi-labs/storefront-backend/pkg/pagination"
)

// Repository manages persistence for credit balances and the transaction ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBalance(ctx context.Context, userID uuid.UUID) (*models.CreditBalance, error)
	EnsureBalance(ctx context.Context, userID uuid.UUID) (*models.CreditBalance, error)
	DebitAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	CreditAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	CreditEarned(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	AppendTransaction(ctx context.Context, txn *models.CreditTransaction) error
	HasRefundForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.CreditTransaction, error)
	ListUserTransactions(ctx context.Context, userID uuid.UUID) ([]models.CreditTransaction, error)
	ListBalances(ctx context.Context) ([]models.CreditBalance, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a credit ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBalance(ctx context.Context, userID uuid.UUID) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) EnsureBalance(ctx context.Context, userID uuid.UUID) (*models.CreditBalance, error) {
	balance := models.CreditBalance{
		UserID:           userID,
		TotalCredits:     decimal.Zero,
		AvailableCredits: decimal.Zero,
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// DebitAvailable decrements the available balance only when the full amount
// is covered. The check and the decrement are one UPDATE statement, so two
// competing debits can never both pass the balance check.
func (r *repository) DebitAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CreditBalance{}).
		Where("user_id = ? AND available_credits >= ?", userID, amount).
		Update("available_credits", gorm.Expr("available_credits - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreditAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.CreditBalance{}).
		Where("user_id = ?", userID).
		Update("available_credits", gorm.Expr("available_credits + ?", amount)).Error
}

func (r *repository) CreditEarned(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.CreditBalance{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_credits":     gorm.Expr("total_credits + ?", amount),
			"available_credits": gorm.Expr("available_credits + ?", amount),
		}).Error
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) HasRefundForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CreditTransaction{}).
		Where("order_id = ? AND type = ?", orderID, enums.CreditTransactionRefunded).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.CreditTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var txns []models.CreditTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListUserTransactions(ctx context.Context, userID uuid.UUID) ([]models.CreditTransaction, error) {
	var txns []models.CreditTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListBalances(ctx context.Context) ([]models.CreditBalance, error) {
	var balances []models.CreditBalance
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}
