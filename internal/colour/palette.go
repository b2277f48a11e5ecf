package colour

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	hueStart = 236.0
	hueEnd   = 0.0
)

// Palette returns n distinguishable series colours, blue to red. With
// greyscale set the colours run from black towards light grey instead.
func Palette(n int, greyscale bool) []color.Color {
	colours := make([]color.Color, n)
	for i := range colours {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}

		if greyscale {
			v := uint8(0xb0 * t)
			colours[i] = color.RGBA{R: v, G: v, B: v, A: 0xff}
			continue
		}
		colours[i] = colorful.Hsv(hueStart-t*(hueStart-hueEnd), 1, 0.85)
	}
	return colours
}
