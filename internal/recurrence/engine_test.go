package recurrence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/parsererror"
	"mlaurent/scanledger/internal/txstore"
)

func testEngine(t *testing.T) (*Engine, *txstore.Store) {
	t.Helper()
	st, err := txstore.Open(":memory:", &logging.MockLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewEngine(st, 3, &logging.MockLogger{}), st
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyRent(start time.Time, end *time.Time) *models.RecurringDefinition {
	return &models.RecurringDefinition{
		Type:        models.TypeExpense,
		Category:    "Housing",
		Subcategory: "Rent",
		Amount:      decimal.NewFromInt(800),
		Frequency:   "monthly",
		StartDate:   start,
		EndDate:     end,
		Description: "rent",
	}
}

func TestGenerate(t *testing.T) {
	t.Run("monthly over four months", func(t *testing.T) {
		def := monthlyRent(day(2024, 1, 15), nil)
		occs, err := Generate(def, day(2024, 4, 20))
		require.NoError(t, err)
		require.Len(t, occs, 4)
		assert.Equal(t, day(2024, 1, 15), occs[0].Date)
		assert.Equal(t, day(2024, 4, 15), occs[3].Date)
	})

	t.Run("end date clamps the range", func(t *testing.T) {
		end := day(2024, 2, 28)
		def := monthlyRent(day(2024, 1, 15), &end)
		occs, err := Generate(def, day(2024, 12, 31))
		require.NoError(t, err)
		assert.Len(t, occs, 2)
	})

	t.Run("start after until yields nothing", func(t *testing.T) {
		def := monthlyRent(day(2024, 6, 1), nil)
		occs, err := Generate(def, day(2024, 5, 1))
		require.NoError(t, err)
		assert.Empty(t, occs)
	})

	t.Run("unknown frequency fails closed", func(t *testing.T) {
		def := monthlyRent(day(2024, 1, 1), nil)
		def.Frequency = "whenever"
		occs, err := Generate(def, day(2024, 12, 31))
		assert.Empty(t, occs)
		var ufe *parsererror.UnknownFrequencyError
		require.ErrorAs(t, err, &ufe)
		assert.Equal(t, "whenever", ufe.Frequency)
	})

	t.Run("month-end anchor never drifts", func(t *testing.T) {
		def := monthlyRent(day(2024, 1, 31), nil)
		occs, err := Generate(def, day(2024, 4, 30))
		require.NoError(t, err)
		require.Len(t, occs, 4)
		assert.Equal(t, day(2024, 2, 29), occs[1].Date)
		assert.Equal(t, day(2024, 3, 29), occs[2].Date)
	})
}

func TestBackfillAll(t *testing.T) {
	engine, st := testEngine(t)
	ctx := context.Background()
	now := day(2024, 4, 10)

	_, err := st.AddRecurrence(ctx, monthlyRent(day(2024, 1, 15), nil))
	require.NoError(t, err)

	report, err := engine.BackfillAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Definitions)
	assert.Equal(t, 3, report.Created, "jan, feb and mar 15 are due; apr 15 is not yet")

	// Idempotent: the second run creates nothing.
	report, err = engine.BackfillAll(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, report.Created)
	assert.NotZero(t, report.Skipped)
}

func TestSyncUpcoming(t *testing.T) {
	engine, st := testEngine(t)
	ctx := context.Background()

	_, err := st.AddRecurrence(ctx, monthlyRent(day(2024, 5, 1), nil))
	require.NoError(t, err)

	// First sync from mid-april: may and june occurrences land in the
	// schedule, nothing is due yet.
	report, err := engine.SyncUpcoming(ctx, day(2024, 4, 15))
	require.NoError(t, err)
	assert.Zero(t, report.Promoted)
	assert.Equal(t, 3, report.Scheduled) // may 1, jun 1, jul 1 within 90 days

	// Time passes; the may occurrence is now due and gets promoted.
	report, err = engine.SyncUpcoming(ctx, day(2024, 5, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Promoted)

	txs, err := st.ListTransactions(ctx, txstore.TransactionFilter{Source: models.SourceGenerated})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, day(2024, 5, 1), txs[0].Date)
}

func TestSyncAfterBackfillDoesNotDoubleBook(t *testing.T) {
	engine, st := testEngine(t)
	ctx := context.Background()

	_, err := st.AddRecurrence(ctx, monthlyRent(day(2024, 4, 1), nil))
	require.NoError(t, err)

	// Schedule april, then backfill it, then promote: one transaction.
	_, err = engine.SyncUpcoming(ctx, day(2024, 3, 20))
	require.NoError(t, err)

	_, err = engine.BackfillAll(ctx, day(2024, 4, 5))
	require.NoError(t, err)

	report, err := engine.SyncUpcoming(ctx, day(2024, 4, 5))
	require.NoError(t, err)
	assert.Zero(t, report.Promoted, "backfill already materialized the occurrence")

	txs, err := st.ListTransactions(ctx, txstore.TransactionFilter{Source: models.SourceGenerated})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestProjectFuture(t *testing.T) {
	engine, st := testEngine(t)
	ctx := context.Background()

	_, err := st.AddRecurrence(ctx, monthlyRent(day(2024, 1, 1), nil))
	require.NoError(t, err)

	occs, err := engine.ProjectFuture(ctx, day(2024, 6, 15))
	require.NoError(t, err)
	require.NotEmpty(t, occs)
	for _, o := range occs {
		assert.True(t, o.Date.After(day(2024, 6, 15)), "only future occurrences")
		assert.False(t, o.Date.After(day(2024, 9, 15)), "bounded by the 3-month horizon")
	}
	assert.Len(t, occs, 3, "monthly definition yields one occurrence per horizon month")

	// Nothing persisted.
	txs, err := st.ListTransactions(ctx, txstore.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCleanupExpired(t *testing.T) {
	engine, st := testEngine(t)
	ctx := context.Background()

	end := day(2024, 3, 31)
	expiredID, err := st.AddRecurrence(ctx, monthlyRent(day(2024, 1, 1), &end))
	require.NoError(t, err)

	_, err = st.AddRecurrence(ctx, monthlyRent(day(2024, 1, 1), nil))
	require.NoError(t, err)

	_, err = st.UpsertScheduled(ctx, &models.Occurrence{
		RecurrenceID: expiredID, Date: day(2024, 3, 1),
		Amount: decimal.NewFromInt(800), Category: "Housing",
		Type: models.TypeExpense,
	})
	require.NoError(t, err)

	n, err := engine.CleanupExpired(ctx, day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := st.ListRecurrences(ctx, models.StatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	pending, err := st.ListScheduled(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSummarize(t *testing.T) {
	engine, st := testEngine(t)
	ctx := context.Background()

	_, err := st.AddRecurrence(ctx, monthlyRent(day(2024, 1, 1), nil))
	require.NoError(t, err)

	salary := monthlyRent(day(2024, 1, 1), nil)
	salary.Type = models.TypeIncome
	salary.Category = "Salary"
	salary.Amount = decimal.NewFromInt(2500)
	_, err = st.AddRecurrence(ctx, salary)
	require.NoError(t, err)

	summary, err := engine.Summarize(ctx)
	require.NoError(t, err)
	assert.Len(t, summary.Definitions, 2)
	assert.Equal(t, "9600.00", summary.AnnualTotal.StringFixed(2), "income excluded from cost totals")
	assert.Equal(t, "800.00", summary.MonthlyTotal.StringFixed(2))
}
