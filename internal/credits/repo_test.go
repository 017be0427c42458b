package credits

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/naledi-labs/storefront-backend/pkg/db/models"
	"github.com/naledi-labs/storefront-backend/pkg/enums"
)

func setupCreditsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	balances := `
CREATE TABLE IF NOT EXISTS credit_balances (
  user_id TEXT PRIMARY KEY,
  total_credits NUMERIC NOT NULL DEFAULT 0,
  available_credits NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS credit_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_id TEXT,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  description TEXT NOT NULL,
  created_at DATETIME
);`
	refundIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS uniq_credit_refund_per_order
  ON credit_transactions (order_id) WHERE type = 'refunded';`

	require.NoError(t, db.Exec(balances).Error)
	require.NoError(t, db.Exec(transactions).Error)
	require.NoError(t, db.Exec(refundIndex).Error)
	return db
}

func seedBalance(t *testing.T, db *gorm.DB, available string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	amount, err := decimal.NewFromString(available)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.CreditBalance{
		UserID:           userID,
		TotalCredits:     amount,
		AvailableCredits: amount,
	}).Error)
	return userID
}

func TestDebitAvailable_SufficientBalance(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)
	userID := seedBalance(t, db, "100.00")

	ok, err := repo.DebitAvailable(context.Background(), userID, decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.True(t, ok)

	balance, err := repo.FindBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.AvailableCredits.Equal(decimal.NewFromInt(20)),
		"available should be 20, got %s", balance.AvailableCredits)
	assert.True(t, balance.TotalCredits.Equal(decimal.NewFromInt(100)),
		"total must not change on debit, got %s", balance.TotalCredits)
}

func TestDebitAvailable_InsufficientBalance(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)
	userID := seedBalance(t, db, "50.00")

	ok, err := repo.DebitAvailable(context.Background(), userID, decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.False(t, ok)

	balance, err := repo.FindBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.AvailableCredits.Equal(decimal.NewFromInt(50)),
		"failed debit must leave the balance untouched, got %s", balance.AvailableCredits)
}

func TestDebitAvailable_CompetingDebits(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)
	userID := seedBalance(t, db, "100.00")
	amount := decimal.NewFromInt(80)

	first, err := repo.DebitAvailable(context.Background(), userID, amount)
	require.NoError(t, err)
	second, err := repo.DebitAvailable(context.Background(), userID, amount)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second, "second debit of 80 against a balance of 100 must fail")

	balance, err := repo.FindBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.AvailableCredits.Equal(decimal.NewFromInt(20)),
		"exactly one debit may land, got %s", balance.AvailableCredits)
}

func TestDebitAvailable_MissingUser(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)

	ok, err := repo.DebitAvailable(context.Background(), uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreditEarned_RaisesBothBalances(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)
	userID := seedBalance(t, db, "10.00")

	require.NoError(t, repo.CreditEarned(context.Background(), userID, decimal.NewFromInt(15)))

	balance, err := repo.FindBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.TotalCredits.Equal(decimal.NewFromInt(25)))
	assert.True(t, balance.AvailableCredits.Equal(decimal.NewFromInt(25)))
}

func TestCreditAvailable_LeavesTotalAlone(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)
	userID := seedBalance(t, db, "40.00")

	ok, err := repo.DebitAvailable(context.Background(), userID, decimal.NewFromInt(30))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.CreditAvailable(context.Background(), userID, decimal.NewFromInt(30)))

	balance, err := repo.FindBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.AvailableCredits.Equal(decimal.NewFromInt(40)))
	assert.True(t, balance.TotalCredits.Equal(decimal.NewFromInt(40)),
		"refund credit must not inflate total, got %s", balance.TotalCredits)
}

func TestHasRefundForOrder(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)
	userID := seedBalance(t, db, "0")
	orderID := uuid.New()

	found, err := repo.HasRefundForOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.AppendTransaction(context.Background(), &models.CreditTransaction{
		ID:      uuid.New(),
		UserID:  userID,
		OrderID: &orderID,
		Type:    enums.CreditTransactionRefunded,
		Amount:  decimal.NewFromInt(25),
	}))

	found, err = repo.HasRefundForOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRefundIndex_RejectsSecondRefundRow(t *testing.T) {
	db := setupCreditsTestDB(t)
	repo := NewRepository(db)
	userID := seedBalance(t, db, "0")
	orderID := uuid.New()

	first := &models.CreditTransaction{
		ID:      uuid.New(),
		UserID:  userID,
		OrderID: &orderID,
		Type:    enums.CreditTransactionRefunded,
		Amount:  decimal.NewFromInt(25),
	}
	require.NoError(t, repo.AppendTransaction(context.Background(), first))

	second := &models.CreditTransaction{
		ID:      uuid.New(),
		UserID:  userID,
		OrderID: &orderID,
		Type:    enums.CreditTransactionRefunded,
		Amount:  decimal.NewFromInt(25),
	}
	err := repo.AppendTransaction(context.Background(), second)
	assert.Error(t, err, "partial unique index must reject a second refund for the order")

	// A used row for the same order is still allowed.
	used := &models.CreditTransaction{
		ID:      uuid.New(),
		UserID:  userID,
		OrderID: &orderID,
		Type:    enums.CreditTransactionUsed,
		Amount:  decimal.NewFromInt(25),
	}
	require.NoError(t, repo.AppendTransaction(context.Background(), used))
}
