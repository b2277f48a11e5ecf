package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 120.0
	fontSize       = 9.0
	tickMarkHeight = 5
	pixelsPerLabel = 120.0
)

// Internal annotator implementation
type annotatorConfig struct {
	FontSize float64
	Borders  BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, strip Strip) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if strip.Calibrated {
		if err := a.drawWavelengthScale(img, area, strip); err != nil {
			return fmt.Errorf("drawing wavelength scale: %w", err)
		}
	}
	if err := a.drawInfoBar(img, strip); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}
	return nil
}

func (a *annotator) drawWavelengthScale(img *image.RGBA, area image.Rectangle, strip Strip) error {
	first, last := strip.Wavelengths[0], strip.Wavelengths[len(strip.Wavelengths)-1]
	low, high := math.Min(first, last), math.Max(first, last)

	step := calculateNiceWavelengthStep(high-low, area.Dx())
	if step <= 0 {
		return nil
	}

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := a.config.Borders.Top - tickMarkHeight - fontHeight/2

	for w := math.Ceil(low/step) * step; w <= high; w += step {
		x := area.Min.X + columnOf(strip.Wavelengths, w)

		for y := a.config.Borders.Top - tickMarkHeight; y < a.config.Borders.Top; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatWavelength(w)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing wavelength label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, strip Strip) error {
	var sb strings.Builder
	sb.WriteString(strip.Label)

	if strip.Calibrated {
		first, last := strip.Wavelengths[0], strip.Wavelengths[len(strip.Wavelengths)-1]
		perPixel := (last - first) / float64(max(len(strip.Wavelengths)-1, 1))

		sb.WriteString("; ")
		sb.WriteString(fmt.Sprintf("%s - %s", formatWavelength(first), formatWavelength(last)))
		sb.WriteString("; ")
		sb.WriteString(fmt.Sprintf("1px = %s Å", humanize.FtoaWithDigits(perPixel, 3)))
	} else {
		sb.WriteString("; uncalibrated")
	}

	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("peak %s", humanize.Commaf(math.Round(peak(strip.Data)))))

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-fontHeight)/2 - metrics.Descent.Round()

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// Helper functions

// columnOf returns the column whose wavelength is closest to w.
func columnOf(wavelengths []float64, w float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, v := range wavelengths {
		if d := math.Abs(v - w); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func calculateNiceWavelengthStep(span float64, width int) float64 {
	// Standard step sizes in angstrom
	steps := []float64{1, 2, 5, 10, 20, 50, 100, 200, 250, 500, 1000, 2000, 5000}

	desiredSteps := math.Max(float64(width)/pixelsPerLabel, 1)
	targetStep := span / desiredSteps

	for _, step := range steps {
		if step >= targetStep {
			if span/step >= 2 {
				return step
			}
			break
		}
	}

	// too narrow for two labels, show the middle
	return span / 2
}

func formatWavelength(w float64) string {
	return fmt.Sprintf("%s Å", humanize.FtoaWithDigits(w, 1))
}
