package calibration

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseError reports a calibration argument that matches none of the
// accepted shapes.
type ParseError struct {
	Arg string
	msg string
	err error
}

func newParseError(arg, format string, args ...any) *ParseError {
	return &ParseError{Arg: arg, msg: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse calibration argument %q: %s", e.Arg, e.msg)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// LineLookup resolves a named element line to its wavelength in angstrom.
type LineLookup func(code string) (float64, bool)

// Parse builds a Calibration from its textual form:
//
//	pixel:wavelength,pixel:wavelength[,pixel:wavelength...]
//	pixel,wavelength,wavelength_per_pixel
//
// Two pixel:wavelength pairs give a DoublePoint calibration, more give a
// NonLinear one. The three token form gives a SinglePoint calibration. Any
// wavelength token may be an element line code known to lookup, which may be
// nil when no catalog is available.
func Parse(arg string, lookup LineLookup) (Calibration, error) {
	tokens := strings.Split(strings.TrimSpace(arg), ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	if strings.Contains(arg, ":") {
		return parseReferences(arg, tokens, lookup)
	}

	if len(tokens) != 3 {
		return nil, newParseError(arg, "expected pixel:wavelength pairs or pixel,wavelength,wavelength_per_pixel")
	}

	pixel, err := parseNumber(arg, tokens[0])
	if err != nil {
		return nil, err
	}
	wavelength, err := parseWavelength(arg, tokens[1], lookup)
	if err != nil {
		return nil, err
	}
	dispersion, err := parseNumber(arg, tokens[2])
	if err != nil {
		return nil, err
	}
	return NewSinglePoint(NewReference(pixel, wavelength), dispersion), nil
}

func parseReferences(arg string, tokens []string, lookup LineLookup) (Calibration, error) {
	if len(tokens) < 2 {
		return nil, newParseError(arg, "expected at least two pixel:wavelength pairs, got %d", len(tokens))
	}

	refs := make([]Reference, 0, len(tokens))
	for _, token := range tokens {
		pixelToken, wavelengthToken, ok := strings.Cut(token, ":")
		if !ok || strings.Contains(wavelengthToken, ":") {
			return nil, newParseError(arg, "reference %q is not in pixel:wavelength form", token)
		}

		pixel, err := parseNumber(arg, pixelToken)
		if err != nil {
			return nil, err
		}
		wavelength, err := parseWavelength(arg, wavelengthToken, lookup)
		if err != nil {
			return nil, err
		}
		refs = append(refs, NewReference(pixel, wavelength))
	}

	if len(refs) == 2 {
		c, err := NewDoublePoint(refs[0], refs[1])
		if err != nil {
			return nil, &ParseError{Arg: arg, msg: err.Error(), err: err}
		}
		return c, nil
	}

	c, err := NewNonLinear(refs...)
	if err != nil {
		return nil, &ParseError{Arg: arg, msg: err.Error(), err: err}
	}
	return c, nil
}

func parseNumber(arg, token string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || !finite(v) {
		return 0, newParseError(arg, "%q is not a number", token)
	}
	return v, nil
}

func parseWavelength(arg, token string, lookup LineLookup) (float64, error) {
	token = strings.TrimSpace(token)
	if lookup != nil {
		if wavelength, ok := lookup(token); ok {
			return wavelength, nil
		}
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || !finite(v) {
		return 0, newParseError(arg, "%q is neither a wavelength nor a known element line", token)
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
