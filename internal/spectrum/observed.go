// Package spectrum models observed and reference spectra and the transforms
// between them: resampling, division by a reference and continuum smoothing.
package spectrum

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/specreduce/internal/calibration"
)

// DefaultLabel is the label of a spectrum read without a header label.
const DefaultLabel = "Raw data"

// Observed is a spectrum captured by the detector. Intensities are indexed by
// pixel; a calibration, when set, maps pixels to wavelengths.
type Observed struct {
	data        []float64
	raw         [][]float64 // nil for 1-D sources
	calibration calibration.Calibration
	label       string
}

// NewObserved creates a spectrum from a 1-D array of intensities.
func NewObserved(data []float64) *Observed {
	return &Observed{data: slices.Clone(data), label: DefaultLabel}
}

// NewImage creates a spectrum from a 2-D detector image. Rows run along the
// dispersion axis; the spectrum is the per column sum across rows.
func NewImage(rows [][]float64) (*Observed, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}

	width := len(rows[0])
	sums := make([]float64, width)
	raw := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), width)
		}
		vecmath.AddBlockInPlace(sums, row)
		raw[i] = slices.Clone(row)
	}

	return &Observed{data: sums, raw: raw, label: DefaultLabel}, nil
}

// Data returns the intensity per pixel.
func (s *Observed) Data() []float64 {
	return slices.Clone(s.data)
}

// Len returns the number of pixels.
func (s *Observed) Len() int {
	return len(s.data)
}

// Wavelengths returns the x axis: calibrated wavelengths, or the pixel
// indices when no calibration is set.
func (s *Observed) Wavelengths() []float64 {
	out := make([]float64, len(s.data))
	for i := range out {
		if s.calibration != nil {
			out[i] = s.calibration.Wavelength(float64(i))
		} else {
			out[i] = float64(i)
		}
	}
	return out
}

// SetCalibration attaches or replaces the calibration. Nil removes it.
func (s *Observed) SetCalibration(c calibration.Calibration) {
	s.calibration = c
}

func (s *Observed) Calibration() calibration.Calibration {
	return s.calibration
}

func (s *Observed) Label() string {
	return s.label
}

func (s *Observed) SetLabel(label string) {
	s.label = label
}

// IsImage reports whether the spectrum was collapsed from a 2-D image.
func (s *Observed) IsImage() bool {
	return s.raw != nil
}

// Raw returns the source image rows, nil for 1-D spectra.
func (s *Observed) Raw() [][]float64 {
	return s.raw
}

// Max returns the peak intensity, 0 for an empty spectrum.
func (s *Observed) Max() float64 {
	if len(s.data) == 0 {
		return 0
	}
	return floats.Max(s.data)
}

// InterpolateTo resamples this spectrum onto the target's grid. Targets
// beyond the end points get the boundary values.
func (s *Observed) InterpolateTo(target Grid) ([]float64, error) {
	l, err := newLinear(s.Wavelengths(), s.data)
	if err != nil {
		return nil, err
	}
	return l.predictAll(target.Wavelengths()), nil
}

// DivideBy divides this spectrum by other resampled onto this grid. Non
// finite quotients, from a zero divisor, are replaced by 0.
func (s *Observed) DivideBy(other Interpolator) ([]float64, error) {
	divisor, err := other.InterpolateTo(s)
	if err != nil {
		return nil, fmt.Errorf("resampling divisor: %w", err)
	}
	return divide(s.data, divisor), nil
}

func divide(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		q := a[i] / b[i]
		if math.IsInf(q, 0) || math.IsNaN(q) {
			q = 0
		}
		out[i] = q
	}
	return out
}
