// Package render draws spectra: as false-colour strips (Colourizer) and as
// intensity plots (PlotRenderer).
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/roman-kulish/specreduce/internal/colour"
)

const (
	DefaultHeight = 50

	// Default border sizes in pixels, used when annotating
	defaultTopBorder    = 40
	defaultLeftBorder   = 20
	defaultBottomBorder = 40
	defaultRightBorder  = 20
)

var graphColour = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// BorderConfig defines the sizes of white space around the strip
type BorderConfig struct {
	Top    int // Space for wavelength scale
	Left   int
	Bottom int // Space for information bar
	Right  int
}

// ColourizeConfig holds all configuration options for a colourized strip
type ColourizeConfig struct {
	Height   int         // Strip height in pixels
	Mode     colour.Mode // Spectrum, greyscale or split
	Graph    bool        // Overlay an intensity graph
	Annotate bool        // Add a wavelength scale and an information bar
	FontSize float64     // Font size in points

	BorderConfig BorderConfig
}

// Strip is the input of a Colourizer: one sample per image column.
type Strip struct {
	Label       string
	Wavelengths []float64 // Angstrom
	Data        []float64
	Calibrated  bool
}

// Colourizer paints a spectrum as an image strip in which every column is
// coloured by its wavelength and brightened by its intensity.
type Colourizer struct {
	config ColourizeConfig
}

// NewColourizer creates a new colourizer with the given configuration
func NewColourizer(config ColourizeConfig) (*Colourizer, error) {
	if config.Height == 0 {
		config.Height = DefaultHeight
	}
	if config.Height < 0 {
		return nil, fmt.Errorf("invalid image height %d", config.Height)
	}
	if config.Mode == "" {
		config.Mode = colour.SpectrumMode
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.Annotate {
		if config.BorderConfig.Top == 0 {
			config.BorderConfig.Top = defaultTopBorder
		}
		if config.BorderConfig.Left == 0 {
			config.BorderConfig.Left = defaultLeftBorder
		}
		if config.BorderConfig.Bottom == 0 {
			config.BorderConfig.Bottom = defaultBottomBorder
		}
		if config.BorderConfig.Right == 0 {
			config.BorderConfig.Right = defaultRightBorder
		}
	}

	return &Colourizer{config: config}, nil
}

// Render creates the image. Without annotations it is exactly
// len(strip.Data) pixels wide and Height pixels high.
func (r *Colourizer) Render(strip Strip) (*image.RGBA, error) {
	width := len(strip.Data)
	if width == 0 {
		return nil, fmt.Errorf("spectrum %q has no samples", strip.Label)
	}
	if len(strip.Wavelengths) != width {
		return nil, fmt.Errorf("spectrum %q has %d wavelengths for %d samples", strip.Label, len(strip.Wavelengths), width)
	}

	b := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0, width+b.Left+b.Right, r.config.Height+b.Top+b.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(b.Left, b.Top, b.Left+width, b.Top+r.config.Height)

	if r.config.Annotate {
		ann, err := newAnnotator(annotatorConfig{FontSize: r.config.FontSize, Borders: b})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, strip); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderStrip(img, area, strip)
	return img, nil
}

func (r *Colourizer) renderStrip(img *image.RGBA, area image.Rectangle, strip Strip) {
	height := r.config.Height

	maxValue := peak(strip.Data)

	for x, v := range strip.Data {
		intensity, graphY := 0.0, -1
		if maxValue > 0 && finite(v) {
			intensity = v / maxValue
			graphY = int(v / (maxValue / float64(height)))
		}

		for y := 0; y < height; y++ {
			var c color.RGBA
			if r.config.Graph && height-y == graphY {
				c = graphColour
			} else {
				c = colour.PixelColour(r.config.Mode, y, height, strip.Wavelengths[x], intensity)
			}
			img.SetRGBA(area.Min.X+x, area.Min.Y+y, c)
		}
	}
}

// peak is the largest finite value of data, at least 0.
func peak(data []float64) float64 {
	p := 0.0
	for _, v := range data {
		if finite(v) {
			p = max(p, v)
		}
	}
	return p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
