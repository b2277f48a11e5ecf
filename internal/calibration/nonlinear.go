package calibration

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/interp"
)

// ErrTooFewReferences is returned when a NonLinear calibration is given fewer
// than two references.
var ErrTooFewReferences = errors.New("at least two references are required")

// NonLinear is a smooth calibration through all of its references.
//
// With three or more references the mapping inside the reference range is a
// monotone piecewise cubic (Fritsch-Butland), so a monotone set of anchors
// never produces a wavelength that runs backwards between them. Outside the
// range the end segment slope is extended linearly. With exactly two
// references the mapping is the straight line of a DoublePoint calibration.
type NonLinear struct {
	refs      []Reference
	predictor interp.Predictor

	// end segment slopes used for extrapolation
	slopeLow, slopeHigh float64
}

// NewNonLinear creates a NonLinear calibration. References may be supplied in
// any order.
func NewNonLinear(refs ...Reference) (*NonLinear, error) {
	if len(refs) < 2 {
		return nil, fmt.Errorf("got %d: %w", len(refs), ErrTooFewReferences)
	}

	sorted := slices.Clone(refs)
	slices.SortFunc(sorted, func(a, b Reference) int {
		switch {
		case a.Pixel < b.Pixel:
			return -1
		case a.Pixel > b.Pixel:
			return 1
		}
		return 0
	})

	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i, r := range sorted {
		if i > 0 && r.Pixel == sorted[i-1].Pixel {
			return nil, fmt.Errorf("pixel %s: %w", formatFloat(r.Pixel), ErrDuplicatePixel)
		}
		xs[i] = r.Pixel
		ys[i] = r.Wavelength
	}

	var fitter interp.FittablePredictor
	if len(sorted) == 2 {
		fitter = &interp.PiecewiseLinear{}
	} else {
		fitter = &interp.FritschButland{}
	}
	if err := fitter.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fitting references: %w", err)
	}

	n := len(xs)
	return &NonLinear{
		refs:      sorted,
		predictor: fitter,
		slopeLow:  (ys[1] - ys[0]) / (xs[1] - xs[0]),
		slopeHigh: (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2]),
	}, nil
}

func (c *NonLinear) Wavelength(pixel float64) float64 {
	first, last := c.refs[0], c.refs[len(c.refs)-1]
	switch {
	case pixel < first.Pixel:
		return first.Wavelength + c.slopeLow*(pixel-first.Pixel)
	case pixel > last.Pixel:
		return last.Wavelength + c.slopeHigh*(pixel-last.Pixel)
	}
	return c.predictor.Predict(pixel)
}

// Dispersion returns the mean dispersion between the outermost references.
func (c *NonLinear) Dispersion() float64 {
	first, last := c.refs[0], c.refs[len(c.refs)-1]
	return (last.Wavelength - first.Wavelength) / (last.Pixel - first.Pixel)
}

// References returns the anchor points ordered by pixel.
func (c *NonLinear) References() []Reference {
	return slices.Clone(c.refs)
}

func (c *NonLinear) Argument() string {
	parts := make([]string, len(c.refs))
	for i, r := range c.refs {
		parts[i] = r.argument()
	}
	return strings.Join(parts, ",")
}

func (c *NonLinear) String() string {
	return formatString(c.Dispersion())
}
