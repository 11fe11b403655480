package models

import (
	"strings"
	"time"

	"mlaurent/scanledger/internal/dateutils"
)

// Frequency is the canonical cadence of a recurring definition.
type Frequency string

// Canonical frequencies.
const (
	FreqDaily      Frequency = "daily"
	FreqWeekly     Frequency = "weekly"
	FreqMonthly    Frequency = "monthly"
	FreqQuarterly  Frequency = "quarterly"
	FreqSemiannual Frequency = "semiannual"
	FreqAnnual     Frequency = "annual"
)

// frequencyAliases tolerates the tokens found in real user data, including
// the French labels the import formats carry.
var frequencyAliases = map[string]Frequency{
	"daily":         FreqDaily,
	"quotidien":     FreqDaily,
	"quotidienne":   FreqDaily,
	"weekly":        FreqWeekly,
	"hebdomadaire":  FreqWeekly,
	"monthly":       FreqMonthly,
	"mensuel":       FreqMonthly,
	"mensuelle":     FreqMonthly,
	"quarterly":     FreqQuarterly,
	"trimestriel":   FreqQuarterly,
	"trimestrielle": FreqQuarterly,
	"semiannual":    FreqSemiannual,
	"semi-annual":   FreqSemiannual,
	"biannual":      FreqSemiannual,
	"semestriel":    FreqSemiannual,
	"semestrielle":  FreqSemiannual,
	"annual":        FreqAnnual,
	"yearly":        FreqAnnual,
	"annuel":        FreqAnnual,
	"annuelle":      FreqAnnual,
}

// ParseFrequency maps a raw cadence token to its canonical Frequency. The
// second return value is false for unknown tokens; callers must treat those
// as fatal for the definition rather than guess a cadence.
func ParseFrequency(raw string) (Frequency, bool) {
	f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(raw))]
	return f, ok
}

// PerYear returns how many occurrences the frequency produces in a year.
// Used for annual/monthly cost estimation. Unknown frequencies yield 0.
func (f Frequency) PerYear() int64 {
	switch f {
	case FreqDaily:
		return 365
	case FreqWeekly:
		return 52
	case FreqMonthly:
		return 12
	case FreqQuarterly:
		return 4
	case FreqSemiannual:
		return 2
	case FreqAnnual:
		return 1
	}
	return 0
}

// Next returns the occurrence date following t. Month-based cadences clamp
// to the last day of the target month (Jan 31 + 1 month = Feb 28/29) so a
// month-end anchor never drifts into the following month.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case FreqDaily:
		return t.AddDate(0, 0, 1)
	case FreqWeekly:
		return t.AddDate(0, 0, 7)
	case FreqMonthly:
		return addMonthsClamped(t, 1)
	case FreqQuarterly:
		return addMonthsClamped(t, 3)
	case FreqSemiannual:
		return addMonthsClamped(t, 6)
	case FreqAnnual:
		return addMonthsClamped(t, 12)
	}
	return t
}

func addMonthsClamped(t time.Time, months int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := t.Day()
	if last := dateutils.EndOfMonth(anchor).Day(); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, time.UTC)
}
