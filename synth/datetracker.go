package synth

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// DateTracker hands out strictly chronological dates spread across the
// window [today - yearsBack*365 days, today]. One tracker serves one corpus.
type DateTracker struct {
	rng   *Rand
	today time.Time
	start time.Time
	last  time.Time

	avgIncrement int
	minIncrement int
	maxIncrement int
}

// NewDateTracker sizes the increments so that totalRecords dates roughly
// span the window ending at today.
func NewDateTracker(totalRecords, yearsBack int, today time.Time, rng *Rand) (*DateTracker, error) {
	if totalRecords < 1 {
		return nil, fmt.Errorf("total records must be at least 1, got %d", totalRecords)
	}
	if yearsBack < 1 {
		return nil, fmt.Errorf("years back must be at least 1, got %d", yearsBack)
	}
	if rng == nil {
		rng = NewRand(0)
	}

	today = DateOf(today)
	start := today.AddDate(0, 0, -yearsBack*365)
	totalDays := int(today.Sub(start) / day)

	avg := max(1, totalDays/totalRecords)
	return &DateTracker{
		rng:          rng,
		today:        today,
		start:        start,
		last:         start,
		avgIncrement: avg,
		minIncrement: max(1, int(float64(avg)*0.5)),
		maxIncrement: max(2, int(float64(avg)*1.5)),
	}, nil
}

// Next advances the cursor and returns the new date. Results never decrease
// and never pass today; once today is reached every call returns today.
func (d *DateTracker) Next() time.Time {
	remaining := int(d.today.Sub(d.last) / day)

	var increment int
	if remaining < d.maxIncrement {
		increment = d.rng.Int(1, max(1, remaining))
	} else {
		increment = d.rng.Int(d.minIncrement, d.maxIncrement)
	}

	d.last = d.last.AddDate(0, 0, increment)
	if d.last.After(d.today) {
		d.last = d.today
	}
	return d.last
}

// Today returns the reference date.
func (d *DateTracker) Today() time.Time { return d.today }

// Start returns the first day of the window.
func (d *DateTracker) Start() time.Time { return d.start }

// Increments returns the average, minimum and maximum day increments.
func (d *DateTracker) Increments() (avg, lo, hi int) {
	return d.avgIncrement, d.minIncrement, d.maxIncrement
}
