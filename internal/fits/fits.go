// Package fits reads spectra and reference templates from FITS files.
package fits

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/roman-kulish/specreduce/internal/calibration"
	"github.com/roman-kulish/specreduce/internal/spectrum"
)

// DefaultLabelKey is the header keyword used to label spectra.
const DefaultLabelKey = "DATE-OBS"

var (
	// ErrNotImage is returned when the primary HDU holds no image data.
	ErrNotImage = errors.New("primary HDU is not an image")

	// ErrNoTable is returned when a reference file has no table extension.
	ErrNoTable = errors.New("no table extension")
)

// ReadSpectrum reads the primary HDU of a FITS file. A one dimensional image
// is used as is, a two dimensional one is collapsed by summing its columns.
//
// The spectrum is labelled from the labelKey header card, falling back to the
// file name. BSCALE and BZERO are applied. When a 1-D header carries linear
// WCS keywords (CRVAL1, CDELT1 and optionally CRPIX1) the matching
// calibration is attached.
func ReadSpectrum(path, labelKey string) (s *spectrum.Observed, err error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeWithError(r, &err)

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer closeWithError(f, &err)

	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	hdr := img.Header()

	axes := hdr.Axes()
	if len(axes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}

	data, err := readPixels(img)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	applyScaling(hdr, data)

	if len(axes) == 1 {
		s = spectrum.NewObserved(data)
		if c := headerCalibration(hdr); c != nil {
			s.SetCalibration(c)
		}
	} else {
		width := axes[0]
		rows := make([][]float64, 0, len(data)/width)
		for i := 0; i+width <= len(data); i += width {
			rows = append(rows, data[i:i+width])
		}
		if s, err = spectrum.NewImage(rows); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	s.SetLabel(headerLabel(hdr, labelKey, path))
	return s, nil
}

// ReadReference reads a template spectrum from the first table extension:
// column 0 holds wavelengths in angstrom and column 1 the flux.
func ReadReference(path string) (wavelengths, flux []float64, err error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer closeWithError(r, &err)

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer closeWithError(f, &err)

	var tbl *fitsio.Table
	for _, hdu := range f.HDUs() {
		if t, ok := hdu.(*fitsio.Table); ok {
			tbl = t
			break
		}
	}
	if tbl == nil {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNoTable)
	}

	cols := tbl.Cols()
	if len(cols) < 2 {
		return nil, nil, fmt.Errorf("%s: table %s has %d columns, expected at least 2", path, tbl.Name(), len(cols))
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, nil, fmt.Errorf("reading table %s: %w", tbl.Name(), err)
	}
	defer closeWithError(rows, &err)

	// scan every column with its own type, then convert the first two
	values := make([]reflect.Value, len(cols))
	dest := make([]any, len(cols))
	for i, col := range cols {
		values[i] = reflect.New(col.Type())
		dest[i] = values[i].Interface()
	}

	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scanning table %s: %w", tbl.Name(), err)
		}

		w, err := toFloat(values[0].Elem())
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", cols[0].Name, err)
		}
		v, err := toFloat(values[1].Elem())
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", cols[1].Name, err)
		}
		wavelengths = append(wavelengths, w)
		flux = append(flux, v)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading table %s: %w", tbl.Name(), err)
	}

	return wavelengths, flux, nil
}

func readPixels(img fitsio.Image) ([]float64, error) {
	hdr := img.Header()
	n := 1
	for _, dim := range hdr.Axes() {
		n *= dim
	}

	switch hdr.Bitpix() {
	case 8:
		return readAs[uint8](img, n)
	case 16:
		return readAs[int16](img, n)
	case 32:
		return readAs[int32](img, n)
	case 64:
		return readAs[int64](img, n)
	case -32:
		return readAs[float32](img, n)
	case -64:
		return readAs[float64](img, n)
	}
	return nil, fmt.Errorf("unsupported BITPIX %d", hdr.Bitpix())
}

func readAs[T uint8 | int16 | int32 | int64 | float32 | float64](img fitsio.Image, n int) ([]float64, error) {
	raw := make([]T, n)
	if err := img.Read(&raw); err != nil {
		return nil, err
	}

	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

func applyScaling(hdr *fitsio.Header, data []float64) {
	scale, ok := cardFloat(hdr, "BSCALE")
	if !ok {
		scale = 1
	}
	zero, _ := cardFloat(hdr, "BZERO")
	if scale == 1 && zero == 0 {
		return
	}
	for i := range data {
		data[i] = data[i]*scale + zero
	}
}

func headerCalibration(hdr *fitsio.Header) calibration.Calibration {
	crval, ok := cardFloat(hdr, "CRVAL1")
	if !ok {
		return nil
	}
	cdelt, ok := cardFloat(hdr, "CDELT1")
	if !ok {
		if cdelt, ok = cardFloat(hdr, "CD1_1"); !ok {
			return nil
		}
	}
	crpix, ok := cardFloat(hdr, "CRPIX1")
	if !ok {
		crpix = 1
	}
	return calibration.FromHeader(crval, cdelt, crpix)
}

func headerLabel(hdr *fitsio.Header, key, path string) string {
	if key != "" {
		if card := hdr.Get(key); card != nil {
			if s := strings.TrimSpace(fmt.Sprint(card.Value)); s != "" {
				return s
			}
		}
	}
	return filepath.Base(path)
}

func cardFloat(hdr *fitsio.Header, key string) (float64, bool) {
	card := hdr.Get(key)
	if card == nil || card.Value == nil {
		return 0, false
	}
	v, err := toFloat(reflect.ValueOf(card.Value))
	if err != nil {
		return 0, false
	}
	return v, true
}

func toFloat(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	}
	return 0, fmt.Errorf("%s is not a number", v.Type())
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
