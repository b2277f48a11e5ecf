package colour

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme is a predefined colour scheme for raw detector images.
type Theme string

const (
	GreyTheme    Theme = "grey"    // Black to white
	ClassicTheme Theme = "classic" // Blue to red transition
	ThermalTheme Theme = "thermal" // Black to red to yellow to white
	MarineTheme  Theme = "marine"  // Deep blue to cyan to white
	JungleTheme  Theme = "jungle"  // Dark green to yellow transition

	DefaultColourMapSize = 256 // Number of pre-computed colours
)

var validThemes = map[Theme]func(float64) color.Color{
	GreyTheme: func(v float64) color.Color {
		g := uint8(v * 255)
		return color.RGBA{R: g, G: g, B: g, A: 255}
	},
	ClassicTheme: func(v float64) color.Color {
		return hsv(240-(v*240), 0.9+(v*0.1), math.Pow(v, 0.7))
	},
	ThermalTheme: func(v float64) color.Color {
		if v < 0.33 {
			return color.RGBA{R: uint8((v * 3) * 255), A: 255}
		}
		if v < 0.66 {
			return color.RGBA{R: 255, G: uint8(((v - 0.33) * 3) * 255), A: 255}
		}
		return color.RGBA{R: 255, G: 255, B: uint8(min(1, (v-0.66)*3) * 255), A: 255}
	},
	MarineTheme: func(v float64) color.Color {
		return hsv(240-(v*60), 1.0-(v*0.8), 0.3+(math.Pow(v, 0.6)*0.7))
	},
	JungleTheme: func(v float64) color.Color {
		return hsv(120-(v*60), 1.0, 0.3+(math.Pow(v, 0.6)*0.7))
	},
}

// ParseTheme validates a theme name. An empty name selects GreyTheme.
func ParseTheme(s string) (Theme, error) {
	if s == "" {
		return GreyTheme, nil
	}
	t := Theme(s)
	if _, ok := validThemes[t]; !ok {
		return "", fmt.Errorf("invalid colour theme: %s", s)
	}
	return t, nil
}

// ColourMap maps values within [lo, hi] onto a pre-computed theme ramp.
type ColourMap struct {
	colours       []color.Color
	lo            float64
	valuePerIndex float64
}

// NewColourMap creates a colour map for values between lo and hi. Unknown
// themes fall back to GreyTheme.
func NewColourMap(theme Theme, lo, hi float64) *ColourMap {
	ramp, ok := validThemes[theme]
	if !ok {
		ramp = validThemes[GreyTheme]
	}

	cm := &ColourMap{
		colours: make([]color.Color, DefaultColourMapSize),
		lo:      lo,
	}
	for i := range cm.colours {
		cm.colours[i] = ramp(float64(i) / float64(DefaultColourMapSize-1))
	}
	if hi > lo {
		cm.valuePerIndex = (hi - lo) / float64(DefaultColourMapSize-1)
	}
	return cm
}

// Colour returns the colour for v. Values outside the range are clamped and
// a degenerate range maps everything to the lowest colour.
func (cm *ColourMap) Colour(v float64) color.Color {
	if cm.valuePerIndex == 0 || math.IsNaN(v) {
		return cm.colours[0]
	}

	index := int((v - cm.lo) / cm.valuePerIndex)
	if index < 0 {
		return cm.colours[0]
	}
	if index >= len(cm.colours) {
		return cm.colours[len(cm.colours)-1]
	}
	return cm.colours[index]
}

func hsv(h, s, v float64) color.Color {
	if h < 0 {
		h += 360
	}
	return colorful.Hsv(h, s, v).Clamped()
}
