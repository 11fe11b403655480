package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/dateutils"
)

// RecurringDefinition describes a repeating transaction template from which
// concrete occurrences are generated.
type RecurringDefinition struct {
	ID          int64           `json:"id"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   string          `json:"frequency"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

// Validate normalizes and checks a definition before persistence.
func (r *RecurringDefinition) Validate() error {
	typ, err := ParseTransactionType(string(r.Type))
	if err != nil {
		return err
	}
	r.Type = typ
	if _, ok := ParseFrequency(r.Frequency); !ok {
		return fmt.Errorf("unknown frequency: %q", r.Frequency)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("recurrence start date is required")
	}
	if r.EndDate != nil && dateutils.CompareDates(*r.EndDate, r.StartDate) < 0 {
		return fmt.Errorf("recurrence end date %s precedes start date %s",
			dateutils.ToISODate(*r.EndDate), dateutils.ToISODate(r.StartDate))
	}
	r.Amount = r.Amount.Abs().Round(2)
	r.Category = NormalizeCategory(r.Category)
	r.StartDate = dateutils.Truncate(r.StartDate)
	if r.EndDate != nil {
		e := dateutils.Truncate(*r.EndDate)
		r.EndDate = &e
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	return nil
}

// Active reports whether occurrences should still be generated on the given
// day. A nil end date means the definition never expires.
func (r *RecurringDefinition) Active(on time.Time) bool {
	if r.Status != StatusActive {
		return false
	}
	if r.EndDate == nil {
		return true
	}
	return dateutils.CompareDates(*r.EndDate, on) >= 0
}

// AnnualCost estimates the yearly total of the definition. Unknown
// frequencies contribute zero.
func (r *RecurringDefinition) AnnualCost() decimal.Decimal {
	f, ok := ParseFrequency(r.Frequency)
	if !ok {
		return decimal.Zero
	}
	return r.Amount.Mul(decimal.NewFromInt(f.PerYear())).Round(2)
}

// MonthlyCost is the annual cost spread over twelve months.
func (r *RecurringDefinition) MonthlyCost() decimal.Decimal {
	return r.AnnualCost().Div(decimal.NewFromInt(12)).Round(2)
}

// Occurrence is a single scheduled materialization of a recurring
// definition. Past occurrences become real transactions via backfill; future
// ones live in the schedule table until their date arrives.
type Occurrence struct {
	ID           int64           `json:"id"`
	RecurrenceID int64           `json:"recurrence_id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory,omitempty"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description,omitempty"`
}

// Transaction converts an occurrence into a persistable transaction tagged
// with the generated source and a backlink to its definition.
func (o Occurrence) Transaction() Transaction {
	return Transaction{
		Type:         o.Type,
		Date:         dateutils.Truncate(o.Date),
		Category:     o.Category,
		Subcategory:  o.Subcategory,
		Amount:       o.Amount,
		Description:  o.Description,
		Source:       SourceGenerated,
		RecurrenceID: o.RecurrenceID,
	}
}
