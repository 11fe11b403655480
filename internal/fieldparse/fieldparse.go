// Package fieldparse turns raw extracted text into structured transaction
// fields using regex cascades. Functions here are pure: they take text and
// patterns and return values, leaving I/O to callers.
package fieldparse

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/store"
)

// ParseAmount extracts a monetary amount from OCR text. Patterns are tried
// in priority order; within a pattern the LAST match wins because receipts
// print the grand total after the line items. OCR confusion of O for 0 and
// the European decimal comma are normalized before parsing.
func ParseAmount(text string, patterns []*regexp.Regexp) (decimal.Decimal, bool) {
	upper := strings.ToUpper(text)

	for _, re := range patterns {
		matches := re.FindAllStringSubmatch(upper, -1)
		if len(matches) == 0 {
			continue
		}
		raw := matches[len(matches)-1][0]
		if len(matches[len(matches)-1]) > 1 {
			raw = matches[len(matches)-1][1]
		}
		amount, err := normalizeAmount(raw)
		if err != nil {
			continue
		}
		return amount, true
	}
	return decimal.Zero, false
}

func normalizeAmount(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
		case r == 'O' || r == 'o':
			b.WriteByte('0')
		case r == ',':
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	return decimal.NewFromString(b.String())
}

// ParseDate extracts a calendar date from extracted text. Patterns that
// capture day, month and year separately are reassembled with a uniform
// separator; single-group patterns are normalized in place. Both 4-digit and
// 2-digit years are accepted. Matches that do not form a real date (32/13/…)
// are skipped rather than aborting the cascade.
func ParseDate(text string, patterns []*regexp.Regexp) (time.Time, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			var dateStr string
			switch {
			case len(m) >= 4:
				dateStr = m[1] + "/" + m[2] + "/" + m[3]
			case len(m) >= 2:
				dateStr = m[1]
			default:
				continue
			}
			dateStr = strings.NewReplacer("-", "/", ".", "/", " ", "/").Replace(dateStr)

			for _, layout := range []string{"02/01/2006", "02/01/06"} {
				if t, err := time.Parse(layout, dateStr); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
				}
			}
		}
	}
	return time.Time{}, false
}

// genericEuroAmount matches any amount tagged with the euro sign. Used as
// the payslip fallback when the specific net-pay cascades find nothing.
var genericEuroAmount = regexp.MustCompile(`([\d\s]+[.,]\d{2})\s*€`)

// payslipDatePatterns target payment and invoice date lines of French pay
// statements, most specific first, bare date last.
var payslipDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)DATE\s+(?:DE\s+)?(?:PAIEMENT|VIREMENT|LA\s+)?(?:FACTURE)?\s*:?\s*(\d{2}[/\-.]\d{2}[/\-.]\d{2,4})`),
	regexp.MustCompile(`(?i)VIREMENT\s+(?:LE\s+)?(\d{2}[/\-.]\d{2}[/\-.]\d{2,4})`),
	regexp.MustCompile(`(?i)PAYÉ\s+LE\s*:?\s*(\d{2}[/\-.]\d{2}[/\-.]\d{2,4})`),
	regexp.MustCompile(`(?i)FACTURE\s+(?:ÉTABLIE)?\s*(?:LE)?\s*(\d{2}[/\-.]\d{2}[/\-.]\d{2,4})`),
	regexp.MustCompile(`(\d{2}[/\-.]\d{2}[/\-.]\d{2,4})`),
}

// PayslipResult is the outcome of parsing an income statement.
type PayslipResult struct {
	Amount      decimal.Decimal
	AmountFound bool
	Date        time.Time
	DateFound   bool
	Description string
}

// ParsePayslip extracts the net amount, payment date and a keyword-derived
// description from a pay statement or transfer notice. The specific net-pay
// cascade runs first; if it fails, the largest euro-tagged amount in the
// document is taken instead. A missing date falls back to now; a missing
// amount stays zero so the record can be corrected by hand later.
func ParsePayslip(text string, patterns *store.Patterns, now time.Time) PayslipResult {
	upper := strings.ToUpper(text)

	amount, found := ParseAmount(text, patterns.PayslipNet)
	if !found {
		var best decimal.Decimal
		for _, m := range genericEuroAmount.FindAllStringSubmatch(upper, -1) {
			v, err := normalizeAmount(m[1])
			if err != nil {
				continue
			}
			if !found || v.GreaterThan(best) {
				best = v
				found = true
			}
		}
		amount = best
	}

	result := PayslipResult{
		Amount:      amount,
		AmountFound: found,
		Description: payslipDescription(upper),
	}
	if d, ok := ParseDate(text, payslipDatePatterns); ok {
		result.Date = d
		result.DateFound = true
	} else {
		result.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return result
}

func payslipDescription(upper string) string {
	switch {
	case strings.Contains(upper, "UBER"):
		return "Uber Eats income"
	case strings.Contains(upper, "SALAIRE") || strings.Contains(upper, "PAYE"):
		return "Salary"
	case strings.Contains(upper, "FACTURE"):
		return "Invoice payment"
	}
	return "Income extracted from document"
}
