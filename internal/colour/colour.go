// Package colour maps wavelengths and intensities to display colours.
package colour

import (
	"fmt"
	"image/color"
	"math"
)

// Wav2RGB returns an approximation of the colour of light of the given
// wavelength in nanometres at a normalised intensity in [0, 1]. The
// wavelength is truncated to whole nanometres. Outside 380-780 nm the colour
// is white.
func Wav2RGB(nm, intensity float64) color.RGBA {
	w := float64(int(nm))

	var r, g, b float64
	switch {
	case w >= 380 && w < 440:
		r, g, b = -(w-440)/(440-350), 0, 1
	case w >= 440 && w < 490:
		r, g, b = 0, (w-440)/(490-440), 1
	case w >= 490 && w < 510:
		r, g, b = 0, 1, -(w-510)/(510-490)
	case w >= 510 && w < 580:
		r, g, b = (w-510)/(580-510), 1, 0
	case w >= 580 && w < 645:
		r, g, b = 1, -(w-645)/(645-580), 0
	case w >= 645 && w <= 780:
		r, g, b = 1, 0, 0
	default:
		r, g, b = 1, 1, 1
	}

	// dim towards the edges of the visible range
	factor := 1.0
	switch {
	case w >= 380 && w < 420:
		factor = 0.3 + 0.7*(w-350)/(420-350)
	case w > 700 && w <= 780:
		factor = 0.3 + 0.7*(780-w)/(780-700)
	}

	scale := 255 * factor * intensity
	return color.RGBA{R: channel(scale * r), G: channel(scale * g), B: channel(scale * b), A: 0xff}
}

// Angstrom2RGB is Wav2RGB for a wavelength in angstrom.
func Angstrom2RGB(angstrom, intensity float64) color.RGBA {
	return Wav2RGB(angstrom/10, intensity)
}

// Intensity2RGB returns a grey of the given normalised intensity.
func Intensity2RGB(intensity float64) color.RGBA {
	v := channel(intensity * 255)
	return color.RGBA{R: v, G: v, B: v, A: 0xff}
}

// channel truncates towards zero like an int conversion and clamps to a
// byte, so negative or overflowing intensities saturate instead of wrapping.
func channel(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(min(max(int(v), 0), 255))
}

// Mode selects how a colourized spectrum is painted.
type Mode string

const (
	SpectrumMode  Mode = "spectrum"  // Wavelength hue scaled by intensity
	GreyscaleMode Mode = "greyscale" // Intensity only
	SplitMode     Mode = "split"     // Spectrum above the middle row, greyscale below
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case SpectrumMode, GreyscaleMode, SplitMode:
		return m, nil
	case "":
		return SpectrumMode, nil
	}
	return "", fmt.Errorf("unknown colour mode %q", s)
}

// PixelColour returns the colour of a pixel in row y of an image of the given
// height, for a sample at wavelength (angstrom) with normalised intensity.
func PixelColour(mode Mode, y, height int, angstrom, intensity float64) color.RGBA {
	switch {
	case mode == GreyscaleMode:
		return Intensity2RGB(intensity)
	case mode == SplitMode && y > height/2:
		return Intensity2RGB(intensity)
	}
	return Angstrom2RGB(angstrom, intensity)
}
