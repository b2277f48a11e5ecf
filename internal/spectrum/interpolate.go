package spectrum

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/interp"
)

var (
	// ErrNotMonotonic is returned when a wavelength grid is not strictly
	// increasing and cannot be fitted.
	ErrNotMonotonic = errors.New("wavelengths must be strictly increasing")

	// ErrEmpty is returned for spectra with no samples.
	ErrEmpty = errors.New("spectrum has no samples")
)

// Grid is anything sampled on a wavelength (or pixel) axis.
type Grid interface {
	Wavelengths() []float64
}

// Interpolator resamples its own data onto another grid.
type Interpolator interface {
	InterpolateTo(target Grid) ([]float64, error)
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}

// linear is a piecewise linear interpolant that holds the boundary values
// outside its domain.
type linear struct {
	xs, ys []float64
	pl     interp.PiecewiseLinear
}

// newLinear fits (xs, ys). A strictly decreasing grid, as produced by a
// negative dispersion, is reversed first.
func newLinear(xs, ys []float64) (*linear, error) {
	if len(xs) == 0 {
		return nil, ErrEmpty
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("grid has %d points but data has %d", len(xs), len(ys))
	}

	xs, ys = slices.Clone(xs), slices.Clone(ys)
	if len(xs) > 1 && xs[0] > xs[len(xs)-1] {
		slices.Reverse(xs)
		slices.Reverse(ys)
	}
	if !strictlyIncreasing(xs) {
		return nil, ErrNotMonotonic
	}

	l := &linear{xs: xs, ys: ys}
	if len(xs) > 1 {
		// Fit panics on bad input, the grid is validated above
		if err := l.pl.Fit(xs, ys); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *linear) predict(x float64) float64 {
	n := len(l.xs)
	switch {
	case n == 1 || x <= l.xs[0]:
		return l.ys[0]
	case x >= l.xs[n-1]:
		return l.ys[n-1]
	}
	return l.pl.Predict(x)
}

func (l *linear) predictAll(at []float64) []float64 {
	out := make([]float64, len(at))
	for i, x := range at {
		out[i] = l.predict(x)
	}
	return out
}
