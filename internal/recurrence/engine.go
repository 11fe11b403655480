// Package recurrence generates concrete occurrences from recurring
// definitions: past occurrences become real transactions (backfill), future
// ones are held in the schedule table until their date arrives.
package recurrence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/parsererror"
	"mlaurent/scanledger/internal/txstore"
)

// Engine drives occurrence generation against the store.
type Engine struct {
	store         *txstore.Store
	log           logging.Logger
	horizonMonths int
}

// NewEngine creates an engine projecting horizonMonths into the future.
func NewEngine(store *txstore.Store, horizonMonths int, log logging.Logger) *Engine {
	if log == nil {
		log = logging.GetLogger()
	}
	if horizonMonths <= 0 {
		horizonMonths = 3
	}
	return &Engine{store: store, log: log, horizonMonths: horizonMonths}
}

// Generate expands a definition into its occurrences from the start date
// through "until" inclusive, honoring the definition's own end date. An
// unknown frequency fails closed: no occurrences, UnknownFrequencyError.
func Generate(def *models.RecurringDefinition, until time.Time) ([]models.Occurrence, error) {
	freq, ok := models.ParseFrequency(def.Frequency)
	if !ok {
		return nil, &parsererror.UnknownFrequencyError{
			RecurrenceID: def.ID,
			Frequency:    def.Frequency,
		}
	}

	until = dateutils.Truncate(until)
	if def.EndDate != nil && dateutils.CompareDates(*def.EndDate, until) < 0 {
		until = dateutils.Truncate(*def.EndDate)
	}

	var out []models.Occurrence
	for d := dateutils.Truncate(def.StartDate); dateutils.CompareDates(d, until) <= 0; d = freq.Next(d) {
		out = append(out, models.Occurrence{
			RecurrenceID: def.ID,
			Date:         d,
			Amount:       def.Amount,
			Category:     def.Category,
			Subcategory:  def.Subcategory,
			Type:         def.Type,
			Description:  def.Description,
		})
	}
	return out, nil
}

// BackfillReport summarizes a backfill run.
type BackfillReport struct {
	Definitions int
	Created     int
	Skipped     int
	Failed      int
}

// BackfillAll materializes every past-due occurrence of every active
// definition as a transaction. Occurrences already present (unique index on
// the generated key) count as skipped. A definition with a broken frequency
// is reported and the run continues.
func (e *Engine) BackfillAll(ctx context.Context, now time.Time) (BackfillReport, error) {
	today := dateutils.Truncate(now)

	defs, err := e.store.ListRecurrences(ctx, models.StatusActive)
	if err != nil {
		return BackfillReport{}, err
	}

	report := BackfillReport{Definitions: len(defs)}
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		occs, err := Generate(def, today)
		if err != nil {
			report.Failed++
			e.log.WithError(err).Error("skipping definition with unusable frequency",
				logging.Field{Key: logging.FieldRecurrence, Value: def.ID},
				logging.Field{Key: logging.FieldFrequency, Value: def.Frequency})
			continue
		}

		for _, occ := range occs {
			tx := occ.Transaction()
			_, inserted, err := e.store.AddTransaction(ctx, &tx)
			if err != nil {
				report.Failed++
				e.log.WithError(err).Error("backfill insert failed",
					logging.Field{Key: logging.FieldRecurrence, Value: def.ID},
					logging.Field{Key: logging.FieldDate, Value: dateutils.ToISODate(occ.Date)})
				continue
			}
			if inserted {
				report.Created++
			} else {
				report.Skipped++
			}
		}
	}

	e.log.Info("backfill complete",
		logging.Field{Key: logging.FieldCount, Value: report.Created},
		logging.Field{Key: "skipped", Value: report.Skipped},
		logging.Field{Key: "failed", Value: report.Failed})
	return report, nil
}

// ProjectFuture returns the occurrences falling strictly after today and
// within the horizon, across all active definitions, without persisting
// anything.
func (e *Engine) ProjectFuture(ctx context.Context, now time.Time) ([]models.Occurrence, error) {
	today := dateutils.Truncate(now)
	horizon := today.AddDate(0, e.horizonMonths, 0)

	defs, err := e.store.ListRecurrences(ctx, models.StatusActive)
	if err != nil {
		return nil, err
	}

	var out []models.Occurrence
	for _, def := range defs {
		occs, err := Generate(def, horizon)
		if err != nil {
			e.log.WithError(err).Warn("skipping definition with unusable frequency",
				logging.Field{Key: logging.FieldRecurrence, Value: def.ID})
			continue
		}
		for _, occ := range occs {
			if dateutils.CompareDates(occ.Date, today) > 0 {
				out = append(out, occ)
			}
		}
	}
	return out, nil
}

// SyncReport summarizes a schedule synchronization run.
type SyncReport struct {
	Promoted  int
	Scheduled int
}

// SyncUpcoming advances the schedule table: pending occurrences whose date
// has arrived are promoted to transactions, then the future horizon is
// refilled. Promotion inserts through the same dedup key as backfill, so
// running both never double-books an occurrence.
func (e *Engine) SyncUpcoming(ctx context.Context, now time.Time) (SyncReport, error) {
	today := dateutils.Truncate(now)
	var report SyncReport

	due, err := e.store.ListScheduled(ctx, today)
	if err != nil {
		return report, err
	}
	for _, occ := range due {
		tx := occ.Transaction()
		if _, inserted, err := e.store.AddTransaction(ctx, &tx); err != nil {
			e.log.WithError(err).Error("promoting scheduled occurrence failed",
				logging.Field{Key: logging.FieldRecurrence, Value: occ.RecurrenceID},
				logging.Field{Key: logging.FieldDate, Value: dateutils.ToISODate(occ.Date)})
			continue
		} else if inserted {
			report.Promoted++
		}
		if err := e.store.DeleteScheduled(ctx, occ.ID); err != nil {
			return report, err
		}
	}

	future, err := e.ProjectFuture(ctx, now)
	if err != nil {
		return report, err
	}
	for i := range future {
		created, err := e.store.UpsertScheduled(ctx, &future[i])
		if err != nil {
			return report, err
		}
		if created {
			report.Scheduled++
		}
	}

	e.log.Info("schedule sync complete",
		logging.Field{Key: "promoted", Value: report.Promoted},
		logging.Field{Key: "scheduled", Value: report.Scheduled})
	return report, nil
}

// CleanupExpired archives active definitions whose end date has passed and
// discards their pending schedule rows. Returns the number archived.
func (e *Engine) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	today := dateutils.Truncate(now)

	defs, err := e.store.ListRecurrences(ctx, models.StatusActive)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, def := range defs {
		if def.EndDate == nil || dateutils.CompareDates(*def.EndDate, today) >= 0 {
			continue
		}
		if err := e.store.ArchiveRecurrence(ctx, def.ID); err != nil {
			return archived, err
		}
		if _, err := e.store.DeleteSchedulesFor(ctx, def.ID); err != nil {
			return archived, err
		}
		archived++
		e.log.Info("archived expired recurrence",
			logging.Field{Key: logging.FieldRecurrence, Value: def.ID},
			logging.Field{Key: logging.FieldCategory, Value: def.Category})
	}
	return archived, nil
}

// CostSummary aggregates the projected cost of the active definitions.
type CostSummary struct {
	Definitions  []*models.RecurringDefinition
	MonthlyTotal decimal.Decimal
	AnnualTotal  decimal.Decimal
}

// Summarize lists active definitions with their monthly and annual totals.
// Income definitions are included in the list but excluded from the cost
// totals.
func (e *Engine) Summarize(ctx context.Context) (CostSummary, error) {
	defs, err := e.store.ListRecurrences(ctx, models.StatusActive)
	if err != nil {
		return CostSummary{}, err
	}

	summary := CostSummary{Definitions: defs}
	for _, def := range defs {
		if def.Type == models.TypeIncome {
			continue
		}
		summary.AnnualTotal = summary.AnnualTotal.Add(def.AnnualCost())
		summary.MonthlyTotal = summary.MonthlyTotal.Add(def.MonthlyCost())
	}
	return summary, nil
}
