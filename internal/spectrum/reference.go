package spectrum

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// Reference is a template spectrum, for example a Pickles stellar library
// entry, used to remove the instrument response from an observation.
type Reference struct {
	label       string
	wavelengths []float64
	flux        []float64
	scale       float64
	linear      *linear
}

// NewReference creates a reference spectrum. The wavelength grid must be
// strictly increasing.
func NewReference(label string, wavelengths, flux []float64) (*Reference, error) {
	if len(wavelengths) == 0 {
		return nil, ErrEmpty
	}
	if len(wavelengths) != len(flux) {
		return nil, fmt.Errorf("reference %s: %d wavelengths but %d flux values", label, len(wavelengths), len(flux))
	}
	if !strictlyIncreasing(wavelengths) {
		return nil, fmt.Errorf("reference %s: %w", label, ErrNotMonotonic)
	}

	r := &Reference{
		label:       label,
		wavelengths: slices.Clone(wavelengths),
		flux:        slices.Clone(flux),
		scale:       1,
	}

	var err error
	if r.linear, err = newLinear(r.wavelengths, r.flux); err != nil {
		return nil, fmt.Errorf("reference %s: %w", label, err)
	}
	return r, nil
}

func (r *Reference) Label() string {
	return r.label
}

func (r *Reference) Wavelengths() []float64 {
	return slices.Clone(r.wavelengths)
}

// Data returns the flux multiplied by the current scale factor.
func (r *Reference) Data() []float64 {
	out := make([]float64, len(r.flux))
	vecmath.ScaleBlock(out, r.flux, r.scale)
	return out
}

// ScaleTo sets the scale factor so that the peak of the reference matches the
// peak of s and returns it.
func (r *Reference) ScaleTo(s interface{ Max() float64 }) float64 {
	r.scale = s.Max() / floats.Max(r.flux)
	return r.scale
}

func (r *Reference) ScaleFactor() float64 {
	return r.scale
}

// InterpolateTo resamples the scaled flux onto the target's grid, holding the
// boundary values outside the template range.
func (r *Reference) InterpolateTo(target Grid) ([]float64, error) {
	resampled := r.linear.predictAll(target.Wavelengths())
	out := make([]float64, len(resampled))
	vecmath.ScaleBlock(out, resampled, r.scale)
	return out, nil
}
