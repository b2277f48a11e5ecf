package spectrum

import (
	"fmt"
)

// DefaultSmoothing is the smoothing factor applied to the continuum.
const DefaultSmoothing = 20

// CorrectedLabel is the label of every corrected spectrum.
const CorrectedLabel = "Corrected"

// Corrected is an observation with the instrument response removed. The
// observation is divided by a reference, the quotient is smoothed into a
// continuum and the observation is divided by that continuum. Everything is
// derived on demand from the two inputs.
type Corrected struct {
	uncorrected *Observed
	reference   Interpolator
	smoothing   float64
}

// CorrectedOption configures a Corrected spectrum.
type CorrectedOption func(*Corrected)

// WithSmoothing overrides the spline smoothing factor.
func WithSmoothing(s float64) CorrectedOption {
	return func(c *Corrected) {
		c.smoothing = s
	}
}

func NewCorrected(uncorrected *Observed, reference Interpolator, opts ...CorrectedOption) *Corrected {
	c := &Corrected{
		uncorrected: uncorrected,
		reference:   reference,
		smoothing:   DefaultSmoothing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Corrected) Label() string {
	return CorrectedLabel
}

func (c *Corrected) Wavelengths() []float64 {
	return c.uncorrected.Wavelengths()
}

// Divided returns the observation divided by the reference.
func (c *Corrected) Divided() ([]float64, error) {
	return c.uncorrected.DivideBy(c.reference)
}

// Smoothed returns the continuum: the divided spectrum passed through a
// degree one smoothing spline and evaluated on the observation grid.
func (c *Corrected) Smoothed() ([]float64, error) {
	divided, err := c.Divided()
	if err != nil {
		return nil, err
	}

	wavelengths := c.Wavelengths()
	spline, err := FitSmoothingSpline(wavelengths, divided, c.smoothing)
	if err != nil {
		return nil, fmt.Errorf("fitting continuum: %w", err)
	}
	return spline.PredictAll(wavelengths), nil
}

// Data returns the observation divided by the continuum. Non finite
// quotients are replaced by 0.
func (c *Corrected) Data() ([]float64, error) {
	smoothed, err := c.Smoothed()
	if err != nil {
		return nil, err
	}
	return divide(c.uncorrected.data, smoothed), nil
}
