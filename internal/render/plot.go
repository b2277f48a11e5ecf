package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/roman-kulish/specreduce/internal/catalog"
	"github.com/roman-kulish/specreduce/internal/colour"
)

const (
	DefaultPlotWidth  = 30 * vg.Centimeter
	DefaultPlotHeight = 18 * vg.Centimeter

	wavelengthLabel = "Wavelength (Å)"
	pixelLabel      = "Pixel"
	intensityLabel  = "Relative intensity"
)

var (
	zeroLineColour = color.RGBA{R: 0xff, G: 0xd7, A: 0xff}

	// ErrNoSeries is returned when there is nothing to plot.
	ErrNoSeries = errors.New("no series to plot")
)

// Series is one curve of a plot.
type Series struct {
	Label string
	X, Y  []float64
}

// CropRange limits the x axis.
type CropRange struct {
	Low, High float64
}

// PlotConfig holds all configuration options for an intensity plot
type PlotConfig struct {
	Title      string
	SupTitle   string                // Printed above the title
	Calibrated bool                  // X axis is wavelength rather than pixel
	Crop       *CropRange            // Nil shows the full range
	Offset     float64               // Vertical shift between consecutive series
	Greyscale  bool                  // Grey series instead of a colour palette
	Lines      []catalog.ElementLine // Vertical element line markers
	Image      [][]float64           // Raw detector image shown under the graph
	ImageTheme colour.Theme          // Colour theme of the image panel

	Width, Height vg.Length
}

// PlotRenderer draws spectra as intensity curves.
type PlotRenderer struct {
	config PlotConfig
}

func NewPlotRenderer(config PlotConfig) *PlotRenderer {
	if config.Width == 0 {
		config.Width = DefaultPlotWidth
	}
	if config.Height == 0 {
		config.Height = DefaultPlotHeight
	}
	return &PlotRenderer{config: config}
}

// Plot builds the graph panel.
func (r *PlotRenderer) Plot(series []Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, ErrNoSeries
	}

	p := plot.New()
	p.Title.Text = r.config.Title
	if r.config.SupTitle != "" {
		p.Title.Text = r.config.SupTitle + "\n" + r.config.Title
	}
	p.Y.Label.Text = intensityLabel
	p.X.Label.Text = pixelLabel
	if r.config.Calibrated {
		p.X.Label.Text = wavelengthLabel
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	palette := colour.Palette(len(series), r.config.Greyscale)
	yMin, yMax := math.Inf(1), math.Inf(-1)

	for i, s := range series {
		if len(s.X) != len(s.Y) {
			return nil, fmt.Errorf("series %q has %d x values and %d y values", s.Label, len(s.X), len(s.Y))
		}

		shift := float64(i) * r.config.Offset
		xys := make(plotter.XYs, 0, len(s.X))
		for j := range s.X {
			if !finite(s.X[j]) || !finite(s.Y[j]) {
				continue
			}
			if r.config.Crop != nil && (s.X[j] < r.config.Crop.Low || s.X[j] > r.config.Crop.High) {
				continue
			}
			y := s.Y[j] + shift
			xys = append(xys, plotter.XY{X: s.X[j], Y: y})
			yMin, yMax = math.Min(yMin, y), math.Max(yMax, y)
		}
		if len(xys) == 0 {
			continue
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		line.LineStyle.Color = palette[i]
		line.LineStyle.Width = vg.Points(1)

		p.Add(line)
		p.Legend.Add(s.Label, line)
	}
	if math.IsInf(yMin, 0) {
		return nil, fmt.Errorf("crop range leaves nothing to plot: %w", ErrNoSeries)
	}

	if r.config.Calibrated {
		zero, err := plotter.NewLine(plotter.XYs{{X: p.X.Min, Y: 0}, {X: p.X.Max, Y: 0}})
		if err != nil {
			return nil, err
		}
		zero.LineStyle.Color = zeroLineColour
		p.Add(zero)
	}

	if err := r.addElementLines(p, yMin, yMax); err != nil {
		return nil, err
	}

	if c := r.config.Crop; c != nil {
		p.X.Min, p.X.Max = c.Low, c.High
	}
	return p, nil
}

func (r *PlotRenderer) addElementLines(p *plot.Plot, yMin, yMax float64) error {
	if len(r.config.Lines) == 0 {
		return nil
	}

	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, len(r.config.Lines)),
		Labels: make([]string, 0, len(r.config.Lines)),
	}
	var colours []color.Color

	for _, l := range r.config.Lines {
		if c := r.config.Crop; c != nil && (l.Wavelength < c.Low || l.Wavelength > c.High) {
			continue
		}

		marker, err := plotter.NewLine(plotter.XYs{{X: l.Wavelength, Y: yMin}, {X: l.Wavelength, Y: yMax}})
		if err != nil {
			return fmt.Errorf("element line %s: %w", l.Label, err)
		}
		marker.LineStyle.Color = l.Colour
		p.Add(marker)

		labels.XYs = append(labels.XYs, plotter.XY{X: l.Wavelength, Y: yMin})
		labels.Labels = append(labels.Labels, l.PlotLabel())
		colours = append(colours, l.Colour)
	}
	if len(labels.Labels) == 0 {
		return nil
	}

	markers, err := plotter.NewLabels(labels)
	if err != nil {
		return fmt.Errorf("element line labels: %w", err)
	}
	for i := range markers.TextStyle {
		markers.TextStyle[i].Rotation = math.Pi / 2
		markers.TextStyle[i].XAlign = text.XLeft
		markers.TextStyle[i].YAlign = text.YBottom
		markers.TextStyle[i].Color = colours[i]
	}
	p.Add(markers)
	return nil
}

// Render draws the plot, and the image panel when configured, to w in the
// given format (png, jpg, svg, pdf, eps, tiff).
func (r *PlotRenderer) Render(w io.Writer, format string, series []Series) error {
	graph, err := r.Plot(series)
	if err != nil {
		return err
	}

	c, err := draw.NewFormattedCanvas(r.config.Width, r.config.Height, format)
	if err != nil {
		return err
	}
	dc := draw.New(c)

	if r.config.Image == nil {
		graph.Draw(dc)
	} else {
		panel, err := imagePanel(r.config.Image, r.config.ImageTheme)
		if err != nil {
			return err
		}

		plots := [][]*plot.Plot{{graph}, {panel}}
		canvases := plot.Align(plots, draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 2}, dc)
		graph.Draw(canvases[0][0])
		panel.Draw(canvases[1][0])
	}

	_, err = c.WriteTo(w)
	return err
}

// PlotFormat returns the output format implied by a file name.
func PlotFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "png"
	}
	return ext
}

func imagePanel(rows [][]float64, theme colour.Theme) (*plot.Plot, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("empty image")
	}
	height, width := len(rows), len(rows[0])

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		for _, v := range row {
			if finite(v) {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
	}
	cm := colour.NewColourMap(theme, lo, hi)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y, row := range rows {
		for x, v := range row {
			img.Set(x, y, cm.Colour(v))
		}
	}

	p := plot.New()
	p.X.Label.Text = "x px"
	p.Y.Label.Text = "y px"
	p.Add(plotter.NewImage(img, 0, 0, float64(width), float64(height)))
	return p, nil
}
