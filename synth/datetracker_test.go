package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

var testToday = time.Date(2025, time.March, 14, 17, 45, 0, 0, time.UTC)

func TestNewDateTrackerIncrements(t *testing.T) {
	tests := []struct {
		name      string
		records   int
		years     int
		wantAvg   int
		wantMin   int
		wantMax   int
		wantStart string
	}{
		{name: "default run", records: 100, years: 3, wantAvg: 10, wantMin: 5, wantMax: 15, wantStart: "2022-03-15"},
		{name: "dense", records: 1000, years: 1, wantAvg: 1, wantMin: 1, wantMax: 2, wantStart: "2024-03-14"},
		{name: "sparse", records: 10, years: 1, wantAvg: 36, wantMin: 18, wantMax: 54, wantStart: "2024-03-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, err := NewDateTracker(tt.records, tt.years, testToday, NewRand(1))
			require.NoError(t, err)

			avg, lo, hi := tracker.Increments()
			assert.Equal(t, tt.wantAvg, avg)
			assert.Equal(t, tt.wantMin, lo)
			assert.Equal(t, tt.wantMax, hi)
			assert.Equal(t, tt.wantStart, FormatDate(tracker.Start()))
			assert.Equal(t, "2025-03-14", FormatDate(tracker.Today()))
		})
	}
}

func TestNewDateTrackerRejectsInvalidInput(t *testing.T) {
	_, err := NewDateTracker(0, 3, testToday, NewRand(1))
	assert.Error(t, err)

	_, err = NewDateTracker(10, 0, testToday, NewRand(1))
	assert.Error(t, err)
}

func TestDateTrackerMonotonicAndBounded(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		tracker, err := NewDateTracker(100, 3, testToday, NewRand(seed))
		require.NoError(t, err)

		prev := tracker.Start()
		gaps := make([]float64, 0, 100)
		for i := 0; i < 100; i++ {
			next := tracker.Next()
			require.False(t, next.Before(prev), "seed %d: date went backwards at %d", seed, i)
			require.False(t, next.After(tracker.Today()), "seed %d: date passed today at %d", seed, i)
			gaps = append(gaps, next.Sub(prev).Hours()/24)
			prev = next
		}

		_, lo, hi := tracker.Increments()
		mean := stat.Mean(gaps, nil)
		assert.GreaterOrEqual(t, mean, float64(lo)-1, "seed %d", seed)
		assert.LessOrEqual(t, mean, float64(hi), "seed %d", seed)
	}
}

func TestDateTrackerClampsAtToday(t *testing.T) {
	tracker, err := NewDateTracker(1000, 1, testToday, NewRand(7))
	require.NoError(t, err)

	var last time.Time
	for i := 0; i < 1000; i++ {
		last = tracker.Next()
	}
	// 1000 increments of at least one day cover a 365 day window.
	assert.True(t, last.Equal(tracker.Today()))
	assert.True(t, tracker.Next().Equal(tracker.Today()))
	assert.True(t, tracker.Next().Equal(tracker.Today()))
}

func TestDateTrackerStaysBeforeTodayWhenSpanNotCovered(t *testing.T) {
	tracker, err := NewDateTracker(100, 3, testToday, NewRand(3))
	require.NoError(t, err)

	// 10 increments of at most 15 days cannot cover 1095 days.
	var last time.Time
	for i := 0; i < 10; i++ {
		last = tracker.Next()
	}
	assert.True(t, last.Before(tracker.Today()))
}
