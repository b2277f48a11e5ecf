package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/specreduce/internal/catalog"
	"github.com/roman-kulish/specreduce/internal/spectrum"
)

func writeSpectrum(t *testing.T, dir, name string, axes []int, data []float64, cards ...fitsio.Card) string {
	t.Helper()

	path := filepath.Join(dir, name)
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	f, err := fitsio.Create(w)
	require.NoError(t, err)
	defer f.Close()

	img := fitsio.NewImage(-64, axes)
	defer img.Close()
	require.NoError(t, img.Header().Append(cards...))
	require.NoError(t, img.Write(data))
	require.NoError(t, f.Write(img))

	return path
}

func calibratedFile(t *testing.T, dir string) string {
	return writeSpectrum(t, dir, "vega.fits", []int{6}, []float64{1, 3, 2, 5, 4, 6},
		fitsio.Card{Name: "DATE-OBS", Value: "2015-04-01T21:00:00"},
		fitsio.Card{Name: "CRVAL1", Value: 4000.0},
		fitsio.Card{Name: "CDELT1", Value: 2.5},
		fitsio.Card{Name: "CRPIX1", Value: 1.0},
	)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := NewRootCommand(logger, new(slog.LevelVar))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLinesCommand(t *testing.T) {
	out, err := execute(t, "lines")
	require.NoError(t, err)

	assert.Contains(t, out, "  Ha 6563.000000 (Hα)\n")
	assert.Contains(t, out, " CaK 3934.000000 (Ca K)\n")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)
}

func TestLinesCommand_LinesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lines:\n  OIII:\n    wavelength: 5007\n    label: \"[O III]\"\n"), 0o600))

	out, err := execute(t, "lines", "--lines-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OIII 5007.000000 ([O III])")

	out, err = execute(t, "lines", "--lines-file", path, "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "OIII:")
	assert.Contains(t, out, "wavelength: 5007")
}

func TestArchiveAndObservations(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "archive.db")
	file := calibratedFile(t, dir)

	out, err := execute(t, "archive", file, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = execute(t, "observations", "--db", db, "--json")
	require.NoError(t, err)

	var observations []spectrum.Observation
	require.NoError(t, json.Unmarshal([]byte(out), &observations))
	require.Len(t, observations, 1)
	assert.Equal(t, "vega.fits", observations[0].Source)
	assert.Equal(t, "2015-04-01T21:00:00", observations[0].Label)
	require.NotNil(t, observations[0].Calibration)
	assert.Equal(t, "0,4000,2.5", *observations[0].Calibration)

	out, err = execute(t, "observations", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "vega.fits")
	assert.Contains(t, out, "0,4000,2.5")

	output := filepath.Join(dir, "archived.png")
	_, err = execute(t, "plot", "--db", db, "--observation", "1", "-l", "Hb", "-o", output)
	require.NoError(t, err)
	assert.FileExists(t, output)
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	image := writeSpectrum(t, dir, "raw.fits", []int{4, 2}, []float64{1, 2, 3, 4, 4, 3, 2, 1})
	other := calibratedFile(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"pixels", []string{image}},
		{"thermal", []string{image, "--image-theme", "thermal"}},
		{"calibrated", []string{image, "-c", "0:4000,3:4006", "-l", "Ha,4003:X", "-t", "Title", "-s", "Super"}},
		{"overlay", []string{image, other, "--offset", "2", "--greyscale", "-C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, tt.name+".png")
			_, err := execute(t, append([]string{"plot", "-o", output}, tt.args...)...)
			require.NoError(t, err)

			f, err := os.Open(output)
			require.NoError(t, err)
			defer f.Close()
			_, err = png.Decode(f)
			assert.NoError(t, err)
		})
	}
}

// writeReference writes a Pickles layout template for spectralType below dir.
func writeReference(t *testing.T, dir, spectralType string) {
	t.Helper()

	path, err := catalog.ReferencePath(dir, spectralType)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	f, err := fitsio.Create(w)
	require.NoError(t, err)
	defer f.Close()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	require.NoError(t, err)
	require.NoError(t, f.Write(phdu))

	tbl, err := fitsio.NewTable("PICKLES", []fitsio.Column{
		{Name: "WAVELENGTH", Format: "E"},
		{Name: "FLUX", Format: "E"},
	}, fitsio.BINARY_TBL)
	require.NoError(t, err)
	defer tbl.Close()

	for wavelength := float32(3500); wavelength <= 7500; wavelength += 50 {
		flux := 1 + (wavelength-3500)/4000
		require.NoError(t, tbl.Write(&wavelength, &flux))
	}
	require.NoError(t, f.Write(tbl))
}

func TestPlotCommand_Reference(t *testing.T) {
	dir := t.TempDir()
	refs := filepath.Join(dir, "refs")
	writeReference(t, refs, "A0V")
	file := calibratedFile(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"header calibration", []string{file, "-r", "A0V"}},
		{"negative dispersion", []string{file, "-r", "A0V", "-c", "0,7000,-3", "-l", "Ha"}},
		{"smoothing", []string{file, "-r", "A0V", "--smoothing", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".png")
			args := append([]string{"plot", "--reference-dir", refs, "-o", output}, tt.args...)
			_, err := execute(t, args...)
			require.NoError(t, err)

			f, err := os.Open(output)
			require.NoError(t, err)
			defer f.Close()
			_, err = png.Decode(f)
			assert.NoError(t, err)
		})
	}
}

func TestPlotCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	file := calibratedFile(t, dir)
	output := filepath.Join(dir, "plot.png")

	_, err := execute(t, "plot", "-o", output)
	assert.Error(t, err)

	_, err = execute(t, "plot", file, "-c", "garbage", "-o", output)
	assert.Error(t, err)

	_, err = execute(t, "plot", file, "-l", "Xx", "-o", output)
	assert.Error(t, err)

	_, err = execute(t, "plot", file, "-r", "Z9V", "-o", output)
	assert.Error(t, err)

	image := writeSpectrum(t, dir, "raw.fits", []int{2, 2}, []float64{1, 2, 3, 4})
	_, err = execute(t, "plot", image, "--image-theme", "sepia", "-o", output)
	assert.Error(t, err)

	_, err = execute(t, "plot", filepath.Join(dir, "missing.fits"), "-o", output)
	assert.Error(t, err)
}

func TestColourizeCommand(t *testing.T) {
	dir := t.TempDir()
	file := calibratedFile(t, dir)

	tests := []struct {
		name   string
		args   []string
		width  int
		height int
	}{
		{"default", nil, 6, 50},
		{"height", []string{"-y", "10", "-G"}, 6, 10},
		{"split", []string{"-y", "8", "-s"}, 6, 8},
		{"annotated", []string{"-y", "10", "--annotate"}, 6 + 20 + 20, 10 + 40 + 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, tt.name+".png")
			_, err := execute(t, append([]string{"colourize", file, "-o", output}, tt.args...)...)
			require.NoError(t, err)

			f, err := os.Open(output)
			require.NoError(t, err)
			defer f.Close()

			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, tt.width, img.Bounds().Dx())
			assert.Equal(t, tt.height, img.Bounds().Dy())
		})
	}
}

func TestColourizeCommand_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	file := calibratedFile(t, dir)

	_, err := execute(t, "colourize", file, "-f", "bmp")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "vega.bmp"))

	_, err = execute(t, "colourize", file, "-g", "-s")
	assert.Error(t, err)

	_, err = execute(t, "colourize", file, "-f", "gif")
	assert.Error(t, err)
}
