package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) DateRange {
	t.Helper()
	dr, err := New(start, end)
	require.NoError(t, err)
	return dr
}

func TestNewValidation(t *testing.T) {
	_, err := New(time.Time{}, date(2024, 1, 5))
	assert.ErrorIs(t, err, ErrZeroBoundary)

	_, err = New(date(2024, 1, 5), date(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvertedRange)

	_, err = New(date(2024, 1, 5), date(2024, 1, 5))
	assert.ErrorIs(t, err, ErrEmptyRange)
}

func TestNewNormalizesToUTCMidnight(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	dr := mustRange(t,
		time.Date(2024, 2, 1, 15, 30, 0, 0, paris),
		time.Date(2024, 2, 5, 9, 0, 0, 0, paris),
	)
	assert.Equal(t, date(2024, 2, 1), dr.Start)
	assert.Equal(t, date(2024, 2, 5), dr.End)
	assert.Equal(t, 4, dr.Nights())
}

func TestOverlaps(t *testing.T) {
	base := mustRange(t, date(2024, 1, 1), date(2024, 1, 5))

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"identical", mustRange(t, date(2024, 1, 1), date(2024, 1, 5)), true},
		{"contained", mustRange(t, date(2024, 1, 2), date(2024, 1, 4)), true},
		{"overlap left", mustRange(t, date(2023, 12, 30), date(2024, 1, 2)), true},
		{"overlap right", mustRange(t, date(2024, 1, 4), date(2024, 1, 8)), true},
		{"touching after", mustRange(t, date(2024, 1, 5), date(2024, 1, 10)), false},
		{"touching before", mustRange(t, date(2023, 12, 28), date(2024, 1, 1)), false},
		{"disjoint", mustRange(t, date(2024, 2, 1), date(2024, 2, 5)), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestContains(t *testing.T) {
	outer := mustRange(t, date(2024, 3, 1), date(2024, 3, 10))

	assert.True(t, outer.Contains(mustRange(t, date(2024, 3, 1), date(2024, 3, 10))))
	assert.True(t, outer.Contains(mustRange(t, date(2024, 3, 3), date(2024, 3, 7))))
	assert.False(t, outer.Contains(mustRange(t, date(2024, 2, 28), date(2024, 3, 5))))
	assert.False(t, outer.Contains(mustRange(t, date(2024, 3, 8), date(2024, 3, 12))))
}

func TestNights(t *testing.T) {
	assert.Equal(t, 1, mustRange(t, date(2024, 1, 1), date(2024, 1, 2)).Nights())
	assert.Equal(t, 4, mustRange(t, date(2024, 2, 1), date(2024, 2, 5)).Nights())
	assert.Equal(t, 31, mustRange(t, date(2024, 1, 1), date(2024, 2, 1)).Nights())
}
