// Package calibration maps detector pixel positions to wavelengths.
//
// A Calibration is built from one or more Reference anchor points. Three
// variants exist: SinglePoint (one anchor and a fixed dispersion), DoublePoint
// (linear through two anchors) and NonLinear (smooth curve through two or more
// anchors). Parse selects the variant from the command line grammar.
package calibration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDuplicatePixel is returned when two references share the same pixel
// position and the dispersion between them would be undefined.
var ErrDuplicatePixel = errors.New("references must have distinct pixel positions")

// Reference is an immutable (pixel, wavelength) anchor point.
type Reference struct {
	Pixel      float64 // Position along the dispersion axis
	Wavelength float64 // Wavelength in angstrom
}

// NewReference creates a reference anchor.
func NewReference(pixel, wavelength float64) Reference {
	return Reference{Pixel: pixel, Wavelength: wavelength}
}

func (r Reference) argument() string {
	return formatFloat(r.Pixel) + ":" + formatFloat(r.Wavelength)
}

// Calibration maps a pixel coordinate to a wavelength in angstrom.
type Calibration interface {
	// Wavelength returns the wavelength at the given, possibly fractional, pixel.
	Wavelength(pixel float64) float64

	// Dispersion returns the mean wavelength change per pixel.
	Dispersion() float64

	// Argument renders the calibration back into the textual form accepted by Parse.
	Argument() string

	String() string
}

var (
	_ Calibration = (*SinglePoint)(nil)
	_ Calibration = (*DoublePoint)(nil)
	_ Calibration = (*NonLinear)(nil)
)

// SinglePoint is a linear calibration anchored at one reference with a
// dispersion supplied by the caller.
type SinglePoint struct {
	ref        Reference
	dispersion float64
}

// NewSinglePoint creates a SinglePoint calibration.
func NewSinglePoint(ref Reference, dispersion float64) *SinglePoint {
	return &SinglePoint{ref: ref, dispersion: dispersion}
}

// FromHeader builds a calibration from the linear WCS keywords of a FITS
// header. crpix is 1-based, as written in the header.
func FromHeader(crval, cdelt, crpix float64) *SinglePoint {
	return NewSinglePoint(NewReference(crpix-1, crval), cdelt)
}

func (c *SinglePoint) Wavelength(pixel float64) float64 {
	return c.ref.Wavelength + c.dispersion*(pixel-c.ref.Pixel)
}

func (c *SinglePoint) Dispersion() float64 {
	return c.dispersion
}

// Reference returns the anchor point.
func (c *SinglePoint) Reference() Reference {
	return c.ref
}

func (c *SinglePoint) Argument() string {
	return strings.Join([]string{
		formatFloat(c.ref.Pixel),
		formatFloat(c.ref.Wavelength),
		formatFloat(c.dispersion),
	}, ",")
}

func (c *SinglePoint) String() string {
	return formatString(c.dispersion)
}

// DoublePoint is a linear calibration through two references. Pixels outside
// the reference range are extrapolated along the same line.
type DoublePoint struct {
	ref1, ref2 Reference
	slope      float64
}

// NewDoublePoint creates a DoublePoint calibration.
func NewDoublePoint(ref1, ref2 Reference) (*DoublePoint, error) {
	if ref1.Pixel == ref2.Pixel {
		return nil, fmt.Errorf("pixel %s: %w", formatFloat(ref1.Pixel), ErrDuplicatePixel)
	}
	return &DoublePoint{
		ref1:  ref1,
		ref2:  ref2,
		slope: (ref1.Wavelength - ref2.Wavelength) / (ref1.Pixel - ref2.Pixel),
	}, nil
}

func (c *DoublePoint) Wavelength(pixel float64) float64 {
	// anchors map exactly, without rounding through the slope
	if pixel == c.ref2.Pixel {
		return c.ref2.Wavelength
	}
	return c.ref1.Wavelength + c.slope*(pixel-c.ref1.Pixel)
}

func (c *DoublePoint) Dispersion() float64 {
	return c.slope
}

// References returns both anchor points in construction order.
func (c *DoublePoint) References() (Reference, Reference) {
	return c.ref1, c.ref2
}

func (c *DoublePoint) Argument() string {
	return c.ref1.argument() + "," + c.ref2.argument()
}

func (c *DoublePoint) String() string {
	return formatString(c.slope)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatString(dispersion float64) string {
	return fmt.Sprintf("<Calibration angstrom_per_pixel: %f>", dispersion)
}
