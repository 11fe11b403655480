// Package models defines the domain types shared by the extraction pipeline,
// the recurrence engine and the transaction store. Every ingestion path (OCR,
// PDF, CSV, OFX, manual, generated) converges on the Transaction type.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/dateutils"
)

// Transaction is the normalized financial transaction record.
type Transaction struct {
	ID           int64           `json:"id"`
	Type         TransactionType `json:"type"`
	Date         time.Time       `json:"date"`
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
	Source       Source          `json:"source"`
	RecurrenceID int64           `json:"recurrence_id,omitempty"`
	ExternalID   string          `json:"external_id,omitempty"`
	AccountIBAN  string          `json:"account_iban,omitempty"`
}

var typeAliases = map[string]TransactionType{
	"expense":     TypeExpense,
	"depense":     TypeExpense,
	"dépense":     TypeExpense,
	"income":      TypeIncome,
	"revenu":      TypeIncome,
	"transferin":  TypeTransferIn,
	"transfer+":   TypeTransferIn,
	"transferout": TypeTransferOut,
	"transfer-":   TypeTransferOut,
}

// ParseTransactionType maps a raw token (tolerant of case and common
// variants) to a canonical TransactionType.
func ParseTransactionType(raw string) (TransactionType, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	switch TransactionType(strings.TrimSpace(raw)) {
	case TypeExpense, TypeIncome, TypeTransferIn, TypeTransferOut:
		return TransactionType(strings.TrimSpace(raw)), nil
	}
	return "", fmt.Errorf("invalid transaction type: %q", raw)
}

// Normalize brings the record into canonical form: amounts absolute and
// rounded to 2 decimals, category title-cased (Uncategorized when empty),
// empty optional strings trimmed, source defaulted to manual.
func (t *Transaction) Normalize() {
	t.Amount = t.Amount.Abs().Round(2)
	t.Category = NormalizeCategory(t.Category)
	t.Subcategory = strings.TrimSpace(t.Subcategory)
	t.Description = strings.TrimSpace(t.Description)
	t.ExternalID = strings.TrimSpace(t.ExternalID)
	if t.Source == "" {
		t.Source = SourceManual
	}
	t.Date = dateutils.Truncate(t.Date)
}

// Validate normalizes the record and reports whether it can be persisted.
// The date must not be in the future relative to now.
func (t *Transaction) Validate(now time.Time) error {
	typ, err := ParseTransactionType(string(t.Type))
	if err != nil {
		return err
	}
	t.Type = typ
	t.Normalize()
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date is required")
	}
	if dateutils.CompareDates(t.Date, now) > 0 {
		return fmt.Errorf("transaction date %s cannot be in the future", dateutils.ToISODate(t.Date))
	}
	return nil
}

// NormalizeCategory trims and title-cases a category name, falling back to
// the Uncategorized sentinel when empty.
func NormalizeCategory(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return CategoryUncategorized
	}
	return titleCase(cleaned)
}

// titleCase capitalizes the first letter of each space-separated word,
// lowercasing the rest. strings.Title is deprecated and locale-naive anyway.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
