package marketdata

import (
	"sort"
	"time"
)

// Observation is one month-end adjusted-close data point.
type Observation struct {
	MonthEnd time.Time
	AdjClose float64
}

// PriceSeries is the monthly adjusted-close history of one symbol.
// Observations are strictly increasing by date, at most one per calendar month.
type PriceSeries struct {
	Symbol       string
	Observations []Observation
}

// monthEnd normalizes a timestamp to the last day of its calendar month, UTC.
func monthEnd(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	// Day zero of the next month is the last day of this one
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// normalizeMonthly collapses raw observations onto the month-end grid: when
// two raw points fall in the same month the later one wins, then the series is
// clipped to the most recent months distinct entries.
func normalizeMonthly(raw []Observation, months int) []Observation {
	if len(raw) == 0 {
		return nil
	}

	byMonth := make(map[time.Time]Observation, len(raw))
	for _, obs := range raw {
		key := monthEnd(obs.MonthEnd)
		prev, ok := byMonth[key]
		if !ok || !obs.MonthEnd.Before(prev.MonthEnd) {
			byMonth[key] = Observation{MonthEnd: obs.MonthEnd, AdjClose: obs.AdjClose}
		}
	}

	out := make([]Observation, 0, len(byMonth))
	for key, obs := range byMonth {
		out = append(out, Observation{MonthEnd: key, AdjClose: obs.AdjClose})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthEnd.Before(out[j].MonthEnd) })

	if len(out) > months {
		out = out[len(out)-months:]
	}
	return out
}
