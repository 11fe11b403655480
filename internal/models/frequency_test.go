package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Frequency
		ok       bool
	}{
		{"canonical monthly", "monthly", FreqMonthly, true},
		{"uppercase", "MONTHLY", FreqMonthly, true},
		{"french monthly", "Mensuelle", FreqMonthly, true},
		{"french quarterly", "trimestriel", FreqQuarterly, true},
		{"yearly alias", "yearly", FreqAnnual, true},
		{"semiannual hyphen", "semi-annual", FreqSemiannual, true},
		{"whitespace", "  weekly  ", FreqWeekly, true},
		{"unknown", "fortnightly", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFrequency(tt.input)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestFrequencyNext(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		freq     Frequency
		from     time.Time
		expected time.Time
	}{
		{"daily", FreqDaily, day(2024, 3, 15), day(2024, 3, 16)},
		{"weekly", FreqWeekly, day(2024, 3, 15), day(2024, 3, 22)},
		{"monthly mid-month", FreqMonthly, day(2024, 3, 15), day(2024, 4, 15)},
		{"monthly clamps jan 31", FreqMonthly, day(2024, 1, 31), day(2024, 2, 29)},
		{"monthly clamps non-leap", FreqMonthly, day(2023, 1, 31), day(2023, 2, 28)},
		{"quarterly", FreqQuarterly, day(2024, 1, 15), day(2024, 4, 15)},
		{"quarterly year wrap", FreqQuarterly, day(2024, 11, 30), day(2025, 2, 28)},
		{"semiannual", FreqSemiannual, day(2024, 2, 29), day(2024, 8, 29)},
		{"annual", FreqAnnual, day(2024, 6, 1), day(2025, 6, 1)},
		{"annual leap day clamps", FreqAnnual, day(2024, 2, 29), day(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.freq.Next(tt.from))
		})
	}
}

func TestFrequencyPerYear(t *testing.T) {
	assert.Equal(t, int64(365), FreqDaily.PerYear())
	assert.Equal(t, int64(52), FreqWeekly.PerYear())
	assert.Equal(t, int64(12), FreqMonthly.PerYear())
	assert.Equal(t, int64(4), FreqQuarterly.PerYear())
	assert.Equal(t, int64(2), FreqSemiannual.PerYear())
	assert.Equal(t, int64(1), FreqAnnual.PerYear())
	assert.Equal(t, int64(0), Frequency("bogus").PerYear())
}
