package treasury

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewTransaction(t *testing.T) {
	companyID := uuid.New()
	boxID := uuid.New()
	actorID := uuid.New()

	t.Run("deposit snapshots before and after", func(t *testing.T) {
		tx, err := CreateDepositTransaction(companyID, boxID, actorID, d("100"), d("50"), SourceManual)
		require.Nil(t, err)

		assert.True(t, tx.BalanceBefore.Equal(d("50")))
		assert.True(t, tx.BalanceAfter.Equal(d("150")))
		assert.True(t, tx.SignedAmount().Equal(d("100")))
		assert.True(t, tx.BalanceChange().Equal(d("100")))
	})

	t.Run("withdrawal may overdraw the box", func(t *testing.T) {
		tx, err := CreateWithdrawalTransaction(companyID, boxID, actorID, d("80"), d("50"), SourceInvoice)
		require.Nil(t, err)

		assert.True(t, tx.BalanceAfter.Equal(d("-30")))
		assert.True(t, tx.SignedAmount().Equal(d("-80")))
	})

	t.Run("amount must be positive", func(t *testing.T) {
		_, err := CreateDepositTransaction(companyID, boxID, actorID, d("0"), d("50"), SourceManual)
		require.NotNil(t, err)
		assert.Equal(t, "VALIDATION_FAILED", err.Code)

		_, err = CreateDepositTransaction(companyID, boxID, actorID, d("-5"), d("50"), SourceManual)
		assert.NotNil(t, err)
	})

	t.Run("rejects missing ids and bad types", func(t *testing.T) {
		_, err := NewTransaction(uuid.Nil, boxID, actorID, TransactionTypeDeposit, d("1"), d("0"), SourceManual)
		assert.NotNil(t, err)
		_, err = NewTransaction(companyID, uuid.Nil, actorID, TransactionTypeDeposit, d("1"), d("0"), SourceManual)
		assert.NotNil(t, err)
		_, err = NewTransaction(companyID, boxID, uuid.Nil, TransactionTypeDeposit, d("1"), d("0"), SourceManual)
		assert.NotNil(t, err)
		_, err = NewTransaction(companyID, boxID, actorID, TransactionType("VOID"), d("1"), d("0"), SourceManual)
		assert.NotNil(t, err)
		_, err = NewTransaction(companyID, boxID, actorID, TransactionTypeDeposit, d("1"), d("0"), SourceType("LOTTERY"))
		assert.NotNil(t, err)
	})

	t.Run("builder setters chain", func(t *testing.T) {
		tx, err := CreateDepositTransaction(companyID, boxID, actorID, d("10"), d("0"), SourceInvoice)
		require.Nil(t, err)

		tx.WithSourceID("INV-42").WithReference("REF-1").WithRemark("settlement")
		require.NotNil(t, tx.SourceID)
		assert.Equal(t, "INV-42", *tx.SourceID)
		assert.Equal(t, "REF-1", tx.Reference)
	})
}

func TestCreateTransferTransactions(t *testing.T) {
	companyID := uuid.New()
	actorID := uuid.New()
	fromID := uuid.New()
	toID := uuid.New()

	t.Run("legs are paired through the outgoing id", func(t *testing.T) {
		out, in, err := CreateTransferTransactions(companyID, fromID, toID, actorID, d("40"), d("100"), d("5"))
		require.Nil(t, err)

		assert.Equal(t, TransactionTypeTransferOut, out.Type)
		assert.Equal(t, TransactionTypeTransferIn, in.Type)
		require.NotNil(t, in.OriginalTransactionID)
		assert.Equal(t, out.ID, *in.OriginalTransactionID)
		require.NotNil(t, out.OriginalTransactionID)
		assert.Equal(t, in.ID, *out.OriginalTransactionID)

		assert.True(t, out.BalanceAfter.Equal(d("60")))
		assert.True(t, in.BalanceAfter.Equal(d("45")))
		// the pair nets to zero across the company
		assert.True(t, out.SignedAmount().Add(in.SignedAmount()).IsZero())
	})

	t.Run("self transfer is rejected", func(t *testing.T) {
		_, _, err := CreateTransferTransactions(companyID, fromID, fromID, actorID, d("40"), d("100"), d("100"))
		require.NotNil(t, err)
		assert.Equal(t, "VALIDATION_FAILED", err.Code)
	})
}

func TestCashBox(t *testing.T) {
	t.Run("apply moves the balance both ways", func(t *testing.T) {
		box, err := NewCashBox(uuid.New(), uuid.New(), "till", true)
		require.Nil(t, err)

		require.Nil(t, box.Apply(d("100")))
		require.Nil(t, box.Apply(d("-130")))
		assert.True(t, box.Balance.Equal(d("-30")), "overdraft must be kept truthfully")
	})

	t.Run("deactivated boxes reject changes", func(t *testing.T) {
		box, err := NewCashBox(uuid.New(), uuid.New(), "till", false)
		require.Nil(t, err)
		box.Deactivate()

		aerr := box.Apply(d("1"))
		require.NotNil(t, aerr)
		assert.Equal(t, "INVALID_STATE", aerr.Code)
	})

	t.Run("can cover checks the current balance", func(t *testing.T) {
		box, err := NewCashBox(uuid.New(), uuid.New(), "till", false)
		require.Nil(t, err)
		require.Nil(t, box.Apply(d("50")))

		assert.True(t, box.CanCover(d("50")))
		assert.False(t, box.CanCover(d("50.01")))
	})

	t.Run("replaying signed amounts reproduces the balance", func(t *testing.T) {
		companyID := uuid.New()
		actorID := uuid.New()
		box, err := NewCashBox(companyID, uuid.New(), "till", true)
		require.Nil(t, err)

		history := make([]*Transaction, 0, 3)
		for _, step := range []struct {
			txType TransactionType
			amount string
		}{
			{TransactionTypeDeposit, "200"},
			{TransactionTypeWithdrawal, "75.5"},
			{TransactionTypeDeposit, "10"},
		} {
			tx, terr := NewTransaction(companyID, box.ID, actorID, step.txType, d(step.amount), box.Balance, SourceManual)
			require.Nil(t, terr)
			require.Nil(t, box.Apply(tx.SignedAmount()))
			require.True(t, box.Balance.Equal(tx.BalanceAfter))
			history = append(history, tx)
		}

		replayed := decimal.Zero
		for _, tx := range history {
			replayed = replayed.Add(tx.SignedAmount())
		}
		assert.True(t, replayed.Equal(box.Balance), "replay %s != balance %s", replayed, box.Balance)
	})
}
