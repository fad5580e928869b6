package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthEnd(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2025, time.January, 1), date(2025, time.January, 31)},
		{date(2025, time.February, 10), date(2025, time.February, 28)},
		{date(2024, time.February, 29), date(2024, time.February, 29)}, // leap year
		{date(2025, time.December, 31), date(2025, time.December, 31)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, monthEnd(tt.in), "monthEnd(%v)", tt.in)
	}
}

func TestNormalizeMonthlyLaterPointWinsWithinMonth(t *testing.T) {
	raw := []Observation{
		{MonthEnd: date(2025, time.March, 3), AdjClose: 100},
		{MonthEnd: date(2025, time.March, 28), AdjClose: 110}, // same month, later
		{MonthEnd: date(2025, time.April, 1), AdjClose: 120},
	}

	got := normalizeMonthly(raw, 12)

	assert.Equal(t, []Observation{
		{MonthEnd: date(2025, time.March, 31), AdjClose: 110},
		{MonthEnd: date(2025, time.April, 30), AdjClose: 120},
	}, got)
}

func TestNormalizeMonthlyClipsToTrailingWindow(t *testing.T) {
	var raw []Observation
	for m := 1; m <= 15; m++ {
		raw = append(raw, Observation{
			MonthEnd: date(2024, time.Month(m), 15).AddDate(0, 0, 0),
			AdjClose: float64(m),
		})
	}

	got := normalizeMonthly(raw, 12)

	assert.Len(t, got, 12)
	// Oldest three months were clipped
	assert.Equal(t, 4.0, got[0].AdjClose)
	assert.Equal(t, 15.0, got[len(got)-1].AdjClose)
	assertStrictlyIncreasing(t, got)
}

func TestNormalizeMonthlyStrictOrder(t *testing.T) {
	// Unsorted input with duplicates comes out sorted, one per month
	raw := []Observation{
		{MonthEnd: date(2025, time.June, 30), AdjClose: 3},
		{MonthEnd: date(2025, time.April, 30), AdjClose: 1},
		{MonthEnd: date(2025, time.May, 31), AdjClose: 2},
		{MonthEnd: date(2025, time.April, 2), AdjClose: 0.5},
	}

	got := normalizeMonthly(raw, 12)

	assert.Len(t, got, 3)
	assertStrictlyIncreasing(t, got)
	assert.Equal(t, 1.0, got[0].AdjClose) // the later of the two April points
}

func TestNormalizeMonthlyEmpty(t *testing.T) {
	assert.Nil(t, normalizeMonthly(nil, 12))
}

func assertStrictlyIncreasing(t *testing.T, obs []Observation) {
	t.Helper()
	months := make(map[string]bool)
	for i, o := range obs {
		if i > 0 {
			assert.True(t, obs[i-1].MonthEnd.Before(o.MonthEnd), "dates not strictly increasing at %d", i)
		}
		key := o.MonthEnd.Format("2006-01")
		assert.False(t, months[key], "more than one observation in %s", key)
		months[key] = true
	}
}
