// Package dateutils provides common date operations used throughout the
// application.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02/01/2006"
	DateLayoutShort    = "02/01/06"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// CommonFormats is a list of standard formats to try when parsing dates
// found in financial documents.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutEuropean,
	DateLayoutShort,
	DateLayoutFull,
	"02.01.2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseDateString attempts to parse a date string using multiple common
// formats, returning the parsed time or an error if none match.
func ParseDateString(dateStr string) (time.Time, error) {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// Truncate strips the time component, normalizing to midnight UTC. Dates in
// the ledger are calendar dates; comparisons must ignore clock time.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first day of the month for a given date.
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last day of the month for a given date.
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}

// CompareDates compares two calendar dates ignoring time of day:
//
//	-1 if date1 is before date2
//	 0 if date1 is equal to date2
//	 1 if date1 is after date2
func CompareDates(date1, date2 time.Time) int {
	date1 = Truncate(date1)
	date2 = Truncate(date2)

	switch {
	case date1.Before(date2):
		return -1
	case date1.After(date2):
		return 1
	default:
		return 0
	}
}
