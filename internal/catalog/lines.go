// Package catalog holds the static tables used to annotate and correct
// spectra: element lines and the Pickles stellar reference library.
package catalog

import (
	"errors"
	"fmt"
	"image/color"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/go-playground/colors.v1"
	"gopkg.in/yaml.v3"
)

// ErrUnknownLine is returned when an element line code is not in the catalog.
var ErrUnknownLine = errors.New("unknown element line")

// DefaultLineColour is used for element lines without an explicit colour.
var DefaultLineColour = color.RGBA{R: 255, A: 255}

// ElementLine is a labelled wavelength drawn as a vertical marker on plots.
type ElementLine struct {
	Wavelength float64    // Angstrom
	Label      string     // Display label
	Colour     color.RGBA // Marker colour
}

func (l ElementLine) String() string {
	return fmt.Sprintf("%f (%s)", l.Wavelength, l.Label)
}

// PlotLabel is the text drawn next to the marker.
func (l ElementLine) PlotLabel() string {
	return fmt.Sprintf("%s (%.02f Å)", l.Label, l.Wavelength)
}

var elementLines = map[string]ElementLine{
	"Ha":  {Wavelength: 6563, Label: "Hα", Colour: DefaultLineColour},
	"Hb":  {Wavelength: 4861, Label: "Hβ", Colour: DefaultLineColour},
	"Hg":  {Wavelength: 4341, Label: "Hγ", Colour: DefaultLineColour},
	"Hd":  {Wavelength: 4102, Label: "Hδ", Colour: DefaultLineColour},
	"CaH": {Wavelength: 3968, Label: "Ca H", Colour: DefaultLineColour},
	"CaK": {Wavelength: 3934, Label: "Ca K", Colour: DefaultLineColour},
}

// Catalog is a set of element lines addressed by short code. The zero value
// is not usable, use New.
type Catalog struct {
	lines map[string]ElementLine
}

// New returns a catalog with the built-in hydrogen Balmer and calcium H and K
// lines.
func New() *Catalog {
	return &Catalog{lines: maps.Clone(elementLines)}
}

// WithLines returns a copy of the catalog extended with lines. Existing codes
// are replaced.
func (c *Catalog) WithLines(lines map[string]ElementLine) *Catalog {
	merged := maps.Clone(c.lines)
	maps.Copy(merged, lines)
	return &Catalog{lines: merged}
}

// Line returns the element line registered under code.
func (c *Catalog) Line(code string) (ElementLine, error) {
	l, ok := c.lines[code]
	if !ok {
		return ElementLine{}, fmt.Errorf("%q: %w", code, ErrUnknownLine)
	}
	return l, nil
}

// Wavelength resolves a line code to its wavelength. It has the shape of
// calibration.LineLookup.
func (c *Catalog) Wavelength(code string) (float64, bool) {
	l, ok := c.lines[code]
	return l.Wavelength, ok
}

// Codes returns all line codes in lexical order.
func (c *Catalog) Codes() []string {
	return slices.Sorted(maps.Keys(c.lines))
}

// ParseLine accepts either a known code or an ad hoc "wavelength:label"
// definition.
func (c *Catalog) ParseLine(def string) (ElementLine, error) {
	def = strings.TrimSpace(def)
	if w, label, ok := strings.Cut(def, ":"); ok {
		wavelength, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return ElementLine{}, fmt.Errorf("element line %q: wavelength %q is not a number", def, w)
		}
		return ElementLine{Wavelength: wavelength, Label: strings.TrimSpace(label), Colour: DefaultLineColour}, nil
	}
	return c.Line(def)
}

// ParseLines parses a comma separated list of line definitions.
func (c *Catalog) ParseLines(defs string) ([]ElementLine, error) {
	if strings.TrimSpace(defs) == "" {
		return nil, nil
	}

	var lines []ElementLine
	for _, def := range strings.Split(defs, ",") {
		l, err := c.ParseLine(def)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// LineFile is the YAML layout of an element line file:
//
//	lines:
//	  OIII:
//	    wavelength: 5007
//	    label: "[O III]"
//	    colour: "#00ff00"
type LineFile struct {
	Lines map[string]LineDefinition `yaml:"lines"`
}

// LineDefinition is one entry of a LineFile.
type LineDefinition struct {
	Wavelength float64 `yaml:"wavelength"`
	Label      string  `yaml:"label"`
	Colour     string  `yaml:"colour,omitempty"`
}

// LoadLines reads element lines from a YAML file. Colours are hex, rgb() or
// rgba() strings; missing colours default to red.
func LoadLines(path string) (map[string]ElementLine, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading line file: %w", err)
	}

	var f LineFile
	if err = yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing line file %s: %w", path, err)
	}

	lines := make(map[string]ElementLine, len(f.Lines))
	for code, def := range f.Lines {
		if def.Wavelength <= 0 {
			return nil, fmt.Errorf("line %q: wavelength must be positive", code)
		}

		c := DefaultLineColour
		if def.Colour != "" {
			if c, err = parseColour(def.Colour); err != nil {
				return nil, fmt.Errorf("line %q: %w", code, err)
			}
		}

		label := def.Label
		if label == "" {
			label = code
		}
		lines[code] = ElementLine{Wavelength: def.Wavelength, Label: label, Colour: c}
	}
	return lines, nil
}

// MarshalLines renders lines in the LineFile layout.
func MarshalLines(c *Catalog) ([]byte, error) {
	f := LineFile{Lines: make(map[string]LineDefinition, len(c.lines))}
	for code, l := range c.lines {
		f.Lines[code] = LineDefinition{
			Wavelength: l.Wavelength,
			Label:      l.Label,
			Colour:     fmt.Sprintf("#%02x%02x%02x", l.Colour.R, l.Colour.G, l.Colour.B),
		}
	}
	return yaml.Marshal(f)
}

func parseColour(s string) (color.RGBA, error) {
	parsed, err := colors.Parse(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	rgba := parsed.ToRGBA()
	nrgba := color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: uint8(rgba.A * 255)}
	return color.RGBAModel.Convert(nrgba).(color.RGBA), nil
}
