package txstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", &logging.MockLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTx(externalID string) *models.Transaction {
	return &models.Transaction{
		Type:        models.TypeExpense,
		Date:        time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Category:    "Groceries",
		Amount:      decimal.RequireFromString("42.50"),
		Description: "weekly shop",
		Source:      models.SourceCSV,
		ExternalID:  externalID,
	}
}

func TestAddTransaction(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, inserted, err := s.AddTransaction(ctx, sampleTx("ext-1"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, id)

	got, err := s.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Category)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("42.50")))
	assert.Equal(t, models.SourceCSV, got.Source)
}

func TestAddTransactionExternalIDDedup(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, inserted, err := s.AddTransaction(ctx, sampleTx("dup"))
	require.NoError(t, err)
	require.True(t, inserted)

	second, inserted, err := s.AddTransaction(ctx, sampleTx("dup"))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first, second)

	all, err := s.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddTransactionEmptyExternalIDNeverConflicts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, inserted, err := s.AddTransaction(ctx, sampleTx(""))
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	all, err := s.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGeneratedOccurrenceDedup(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	recID, err := s.AddRecurrence(ctx, sampleDefinition())
	require.NoError(t, err)

	gen := func() *models.Transaction {
		return &models.Transaction{
			Type:         models.TypeExpense,
			Date:         time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Category:     "Housing",
			Subcategory:  "Rent",
			Amount:       decimal.NewFromInt(800),
			Source:       models.SourceGenerated,
			RecurrenceID: recID,
		}
	}

	_, inserted, err := s.AddTransaction(ctx, gen())
	require.NoError(t, err)
	assert.True(t, inserted)

	_, inserted, err = s.AddTransaction(ctx, gen())
	require.NoError(t, err)
	assert.False(t, inserted, "same definition, date and category is the same occurrence")
}

func TestListTransactionsFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mk := func(date time.Time, category string, typ models.TransactionType) {
		tx := &models.Transaction{
			Type: typ, Date: date, Category: category,
			Amount: decimal.NewFromInt(10), Source: models.SourceManual,
		}
		_, _, err := s.AddTransaction(ctx, tx)
		require.NoError(t, err)
	}

	mk(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "Groceries", models.TypeExpense)
	mk(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), "Groceries", models.TypeExpense)
	mk(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), "Salary", models.TypeIncome)

	byDate, err := s.ListTransactions(ctx, TransactionFilter{
		From: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	byCategory, err := s.ListTransactions(ctx, TransactionFilter{Category: "groceries"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2, "category filter is normalized")

	byType, err := s.ListTransactions(ctx, TransactionFilter{Type: models.TypeIncome})
	require.NoError(t, err)
	assert.Len(t, byType, 1)
}

func TestUpdateTransactionCategory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, _, err := s.AddTransaction(ctx, sampleTx(""))
	require.NoError(t, err)

	require.NoError(t, s.UpdateTransactionCategory(ctx, id, "leisure", "Streaming"))
	got, err := s.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Leisure", got.Category)
	assert.Equal(t, "Streaming", got.Subcategory)

	assert.Error(t, s.UpdateTransactionCategory(ctx, 9999, "X", ""))
}

func TestDeleteTransactionCascadesAttachments(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, _, err := s.AddTransaction(ctx, sampleTx(""))
	require.NoError(t, err)

	_, err = s.AddAttachment(ctx, &models.Attachment{
		TransactionID: id, FileName: "r.png", StoredPath: "/tmp/r.png",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTransaction(ctx, id))

	atts, err := s.ListAttachments(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, atts)
}
