package runs

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	commonslices "github.com/pg4sim/pg4launch/internal/common/slices"
)

// LogRange returns n values spaced evenly in log-space between x0 and x1, both included.
// A single value is just x0.
func LogRange(n int, x0, x1 float64) ([]float64, error) {
	if n < 1 {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "LogRange.Count",
			Value:   n,
			Message: "must be at least 1",
		})
	}
	if x0 <= 0 || x1 <= 0 {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "LogRange",
			Value:   [2]float64{x0, x1},
			Message: "bounds must be positive",
		})
	}
	if n == 1 {
		return []float64{x0}, nil
	}

	l0, l1 := math.Log(x0), math.Log(x1)
	rv := make([]float64, n)
	for i := range rv {
		t := float64(i) / float64(n-1)
		rv[i] = math.Exp(l0*(1-t) + l1*t)
	}
	// Pin the endpoints; exp(log(x)) isn't always exactly x.
	rv[0], rv[n-1] = x0, x1
	return rv, nil
}

// Shuffle returns a uniformly permuted copy of values.
// Pass a seeded source to reproduce an order.
func Shuffle(values []float64, rng *rand.Rand) []float64 {
	rv := make([]float64, len(values))
	copy(rv, values)
	commonslices.Shuffle(rng, rv)
	return rv
}
