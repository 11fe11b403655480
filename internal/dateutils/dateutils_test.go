package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"iso", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"european", "15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"short year", "15/03/24", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"dotted", "15.03.2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"padded", "  2024-03-15 ", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "not a date", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	in := time.Date(2024, 3, 15, 18, 42, 7, 123, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Truncate(in))
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, 29, EndOfMonth(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)).Day())
	assert.Equal(t, 28, EndOfMonth(time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)).Day())
	assert.Equal(t, 31, EndOfMonth(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).Day())
}

func TestCompareDates(t *testing.T) {
	a := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, -1, CompareDates(a, b))
	assert.Equal(t, 1, CompareDates(b, a))
	assert.Equal(t, 0, CompareDates(a, a.Add(2*time.Hour)), "clock time ignored")
}
