// Package synth generates the synthetic financial-intelligence corpora that
// back the EconFlux knowledge bases, and the mock market data served by the
// market tools.
package synth

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is a goroutine-safe random source with the draw helpers the
// generators need.
type Rand struct {
	mu    sync.Mutex
	src   rand.Source
	rng   *rand.Rand
	faker *gofakeit.Faker
}

// NewRand creates a Rand. A zero seed selects a time-based seed.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Rand{
		src:   src,
		rng:   rand.New(src),
		faker: gofakeit.New(seed),
	}
}

// LastName returns a random surname.
func (r *Rand) LastName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faker.LastName()
}

// Int returns a uniform integer in [lo, hi], both ends inclusive.
func (r *Rand) Int(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rng.IntN(hi-lo+1)
}

// Uniform returns a continuous uniform draw in [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return distuv.Uniform{Min: lo, Max: hi, Src: r.src}.Rand()
}

// Chance reports whether a fresh draw in [0, 1) exceeds threshold.
func (r *Rand) Chance(threshold float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() > threshold
}

func pick[T any](r *Rand, items []T) T {
	return items[r.Int(0, len(items)-1)]
}

// Round rounds x half-to-even to the given number of decimal places.
func Round(x float64, places int) float64 {
	return scalar.RoundEven(x, places)
}

// FormatFloat renders a float the way the corpora print numbers: the
// shortest representation, always with a fractional part.
func FormatFloat(x float64) string {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
