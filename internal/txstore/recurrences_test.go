package txstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlaurent/scanledger/internal/models"
)

func sampleDefinition() *models.RecurringDefinition {
	return &models.RecurringDefinition{
		Type:        models.TypeExpense,
		Category:    "Housing",
		Subcategory: "Rent",
		Amount:      decimal.NewFromInt(800),
		Frequency:   "monthly",
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description: "apartment rent",
	}
}

func TestRecurrenceCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.AddRecurrence(ctx, sampleDefinition())
	require.NoError(t, err)

	got, err := s.GetRecurrence(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Housing", got.Category)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Nil(t, got.EndDate)

	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got.EndDate = &end
	got.Amount = decimal.NewFromInt(850)
	require.NoError(t, s.UpdateRecurrence(ctx, got))

	updated, err := s.GetRecurrence(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, updated.EndDate)
	assert.Equal(t, end, *updated.EndDate)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(850)))

	require.NoError(t, s.ArchiveRecurrence(ctx, id))
	active, err := s.ListRecurrences(ctx, models.StatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListRecurrences(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddRecurrenceRejectsBadFrequency(t *testing.T) {
	s := testStore(t)
	def := sampleDefinition()
	def.Frequency = "whenever"
	_, err := s.AddRecurrence(context.Background(), def)
	assert.Error(t, err)
}

func TestDeleteRecurrenceKeepsGeneratedTransactions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.AddRecurrence(ctx, sampleDefinition())
	require.NoError(t, err)

	tx := &models.Transaction{
		Type: models.TypeExpense, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Category: "Housing", Amount: decimal.NewFromInt(800),
		Source: models.SourceGenerated, RecurrenceID: id,
	}
	txID, _, err := s.AddTransaction(ctx, tx)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecurrence(ctx, id))

	kept, err := s.GetTransaction(ctx, txID)
	require.NoError(t, err)
	assert.Zero(t, kept.RecurrenceID, "backlink nulled, row kept")
}

func TestSchedules(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	recID, err := s.AddRecurrence(ctx, sampleDefinition())
	require.NoError(t, err)

	occ := &models.Occurrence{
		RecurrenceID: recID,
		Date:         time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(800),
		Category:     "Housing",
		Type:         models.TypeExpense,
	}

	created, err := s.UpsertScheduled(ctx, occ)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.UpsertScheduled(ctx, occ)
	require.NoError(t, err)
	assert.False(t, created, "same definition and date is idempotent")

	later := *occ
	later.Date = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.UpsertScheduled(ctx, &later)
	require.NoError(t, err)

	due, err := s.ListScheduled(ctx, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, due, 1)

	all, err := s.ListScheduled(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := s.DeleteSchedulesFor(ctx, recID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestScheduleCascadeOnRecurrenceDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	recID, err := s.AddRecurrence(ctx, sampleDefinition())
	require.NoError(t, err)

	_, err = s.UpsertScheduled(ctx, &models.Occurrence{
		RecurrenceID: recID,
		Date:         time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(800),
		Category:     "Housing",
		Type:         models.TypeExpense,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecurrence(ctx, recID))

	all, err := s.ListScheduled(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
