package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/roman-kulish/specreduce/internal/catalog"
	"github.com/roman-kulish/specreduce/internal/colour"
)

func testStrip() Strip {
	return Strip{
		Label:       "2015-04-01",
		Wavelengths: []float64{4000, 5000, 6500, 8000},
		Data:        []float64{10, 20, 40, 0},
		Calibrated:  true,
	}
}

func TestColourizer_Dimensions(t *testing.T) {
	r, err := NewColourizer(ColourizeConfig{})
	require.NoError(t, err)

	img, err := r.Render(testStrip())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, DefaultHeight), img.Bounds())
}

func TestColourizer_Spectrum(t *testing.T) {
	r, err := NewColourizer(ColourizeConfig{Height: 10})
	require.NoError(t, err)

	img, err := r.Render(testStrip())
	require.NoError(t, err)

	for y := 0; y < 10; y++ {
		assert.Equal(t, colour.Angstrom2RGB(6500, 1), img.RGBAAt(2, y))
		assert.Equal(t, colour.Angstrom2RGB(5000, 0.5), img.RGBAAt(1, y))
		assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(3, y))
	}
}

func TestColourizer_Modes(t *testing.T) {
	grey, err := NewColourizer(ColourizeConfig{Height: 10, Mode: colour.GreyscaleMode})
	require.NoError(t, err)
	img, err := grey.Render(testStrip())
	require.NoError(t, err)
	assert.Equal(t, colour.Intensity2RGB(0.5), img.RGBAAt(1, 0))

	split, err := NewColourizer(ColourizeConfig{Height: 10, Mode: colour.SplitMode})
	require.NoError(t, err)
	img, err = split.Render(testStrip())
	require.NoError(t, err)
	assert.Equal(t, colour.Angstrom2RGB(6500, 1), img.RGBAAt(2, 5))
	assert.Equal(t, colour.Intensity2RGB(1), img.RGBAAt(2, 6))
}

func TestColourizer_Graph(t *testing.T) {
	r, err := NewColourizer(ColourizeConfig{Height: 10, Graph: true})
	require.NoError(t, err)

	img, err := r.Render(testStrip())
	require.NoError(t, err)

	// 20 of 40 at height 10 puts the trace on row 10-5
	assert.Equal(t, graphColour, img.RGBAAt(1, 5))
	assert.NotEqual(t, graphColour, img.RGBAAt(1, 4))
	// the peak sits on the top row
	assert.Equal(t, graphColour, img.RGBAAt(2, 0))
	assert.NotEqual(t, graphColour, img.RGBAAt(2, 1))
}

func TestColourizer_Annotated(t *testing.T) {
	r, err := NewColourizer(ColourizeConfig{Height: 10, Annotate: true})
	require.NoError(t, err)

	img, err := r.Render(testStrip())
	require.NoError(t, err)

	wantW := 4 + defaultLeftBorder + defaultRightBorder
	wantH := 10 + defaultTopBorder + defaultBottomBorder
	assert.Equal(t, image.Rect(0, 0, wantW, wantH), img.Bounds())
	assert.Equal(t, colour.Angstrom2RGB(6500, 1), img.RGBAAt(defaultLeftBorder+2, defaultTopBorder))
}

func TestColourizer_Errors(t *testing.T) {
	_, err := NewColourizer(ColourizeConfig{Height: -1})
	assert.Error(t, err)

	r, err := NewColourizer(ColourizeConfig{})
	require.NoError(t, err)

	_, err = r.Render(Strip{})
	assert.Error(t, err)

	_, err = r.Render(Strip{Wavelengths: []float64{1}, Data: []float64{1, 2}})
	assert.Error(t, err)
}

func TestColourizer_AllZero(t *testing.T) {
	r, err := NewColourizer(ColourizeConfig{Height: 4, Graph: true})
	require.NoError(t, err)

	img, err := r.Render(Strip{Wavelengths: []float64{5000, 5001}, Data: []float64{0, 0}})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(0, 0))
}

func TestColourizer_NonFinite(t *testing.T) {
	r, err := NewColourizer(ColourizeConfig{Height: 10, Graph: true, Annotate: true})
	require.NoError(t, err)

	strip := testStrip()
	strip.Data = []float64{10, math.NaN(), 40, math.Inf(1)}

	img, err := r.Render(strip)
	require.NoError(t, err)

	x, y := defaultLeftBorder, defaultTopBorder+9
	assert.Equal(t, colour.Angstrom2RGB(4000, 0.25), img.RGBAAt(x, y))
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(x+1, y))
	assert.Equal(t, colour.Angstrom2RGB(6500, 1), img.RGBAAt(x+2, y))
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(x+3, y))
}

func TestCalculateNiceWavelengthStep(t *testing.T) {
	assert.Equal(t, 500.0, calculateNiceWavelengthStep(3100, 1000))
	assert.Equal(t, 1000.0, calculateNiceWavelengthStep(3100, 400))
	assert.Equal(t, 1550.0, calculateNiceWavelengthStep(3100, 300))
	assert.Equal(t, 0.5, calculateNiceWavelengthStep(1, 1000))
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, ImagePNG))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, Encode(&buf, img, ImageBMP))
	decoded, err = bmp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, Encode(&buf, img, ImageJPEG))
	assert.NotZero(t, buf.Len())

	assert.Error(t, Encode(&buf, img, "gif"))
}

func TestImageFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want ImageFormat
	}{
		{"out.png", ImagePNG},
		{"out.JPG", ImageJPEG},
		{"out.jpeg", ImageJPEG},
		{"out.bmp", ImageBMP},
		{"out", ImagePNG},
	}
	for _, tt := range tests {
		got, err := ImageFormatFromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := ImageFormatFromPath("out.gif")
	assert.Error(t, err)
}

func TestPlotRenderer_Plot(t *testing.T) {
	r := NewPlotRenderer(PlotConfig{
		Title:      "spectrum.fits",
		SupTitle:   "Vega",
		Calibrated: true,
		Crop:       &CropRange{Low: 4000, High: 7000},
		Offset:     100,
		Lines:      []catalog.ElementLine{{Wavelength: 6563, Label: "Hα", Colour: catalog.DefaultLineColour}, {Wavelength: 3934, Label: "Ca K"}},
	})

	p, err := r.Plot([]Series{
		{Label: "Raw data", X: []float64{3000, 4500, 6000, 9000}, Y: []float64{1, 2, 3, 4}},
		{Label: "Corrected", X: []float64{3000, 4500, 6000, 9000}, Y: []float64{1, 1, 1, 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Vega\nspectrum.fits", p.Title.Text)
	assert.Equal(t, wavelengthLabel, p.X.Label.Text)
	assert.Equal(t, intensityLabel, p.Y.Label.Text)
	assert.Equal(t, 4000.0, p.X.Min)
	assert.Equal(t, 7000.0, p.X.Max)
}

func TestPlotRenderer_PixelAxis(t *testing.T) {
	p, err := NewPlotRenderer(PlotConfig{}).Plot([]Series{{Label: "Raw data", X: []float64{0, 1, 2}, Y: []float64{3, 1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, pixelLabel, p.X.Label.Text)
}

func TestPlotRenderer_SkipsNonFinite(t *testing.T) {
	p, err := NewPlotRenderer(PlotConfig{Calibrated: true}).Plot([]Series{
		{Label: "Raw data", X: []float64{4000, 4001, 4002, math.NaN()}, Y: []float64{1, math.NaN(), math.Inf(-1), 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, p.X.Min)
	assert.Equal(t, 4000.0, p.X.Max)

	_, err = NewPlotRenderer(PlotConfig{}).Plot([]Series{{X: []float64{0, 1}, Y: []float64{math.NaN(), math.NaN()}}})
	assert.ErrorIs(t, err, ErrNoSeries)
}

func TestPlotRenderer_Errors(t *testing.T) {
	_, err := NewPlotRenderer(PlotConfig{}).Plot(nil)
	assert.ErrorIs(t, err, ErrNoSeries)

	_, err = NewPlotRenderer(PlotConfig{Crop: &CropRange{Low: 100, High: 200}}).
		Plot([]Series{{X: []float64{0, 1}, Y: []float64{0, 1}}})
	assert.ErrorIs(t, err, ErrNoSeries)

	_, err = NewPlotRenderer(PlotConfig{}).Plot([]Series{{X: []float64{0, 1}, Y: []float64{0}}})
	assert.Error(t, err)
}

func TestPlotRenderer_Render(t *testing.T) {
	r := NewPlotRenderer(PlotConfig{
		Title: "image",
		Image: [][]float64{{1, 2, 3}, {4, 5, 6}},
	})

	var buf bytes.Buffer
	err := r.Render(&buf, "png", []Series{{Label: "Raw data", X: []float64{0, 1, 2}, Y: []float64{5, 7, 9}}})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.False(t, img.Bounds().Empty())
}

func TestImagePanel(t *testing.T) {
	_, err := imagePanel(nil, colour.GreyTheme)
	assert.Error(t, err)

	p, err := imagePanel([][]float64{{1, 2}, {3, 4}}, colour.ThermalTheme)
	require.NoError(t, err)
	assert.Equal(t, "x px", p.X.Label.Text)
	assert.Equal(t, 2.0, p.X.Max)
	assert.Equal(t, 2.0, p.Y.Max)
}

func TestPlotFormat(t *testing.T) {
	assert.Equal(t, "svg", PlotFormat("a/b.SVG"))
	assert.Equal(t, "png", PlotFormat("plot"))
}
