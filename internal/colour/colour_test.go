package colour

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

func TestWav2RGB(t *testing.T) {
	tests := []struct {
		name      string
		nm        float64
		intensity float64
		want      color.RGBA
	}{
		{"red", 650, 1, rgb(255, 0, 0)},
		{"below visible", 300, 1, rgb(255, 255, 255)},
		{"above visible", 781, 1, rgb(255, 255, 255)},
		{"violet", 400, 1, rgb(90, 0, 204)},
		{"blue", 440, 1, rgb(0, 0, 255)},
		{"cyan", 490, 1, rgb(0, 255, 255)},
		{"green", 510, 1, rgb(0, 255, 0)},
		{"yellow", 580, 1, rgb(255, 255, 0)},
		{"orange", 612.5, 1, rgb(255, 129, 0)},
		{"deep red edge", 780, 1, rgb(76, 0, 0)},
		{"half intensity", 650, 0.5, rgb(127, 0, 0)},
		{"zero intensity", 500, 0, rgb(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wav2RGB(tt.nm, tt.intensity))
		})
	}
}

func TestAngstrom2RGB(t *testing.T) {
	assert.Equal(t, Wav2RGB(656.3, 0.8), Angstrom2RGB(6563, 0.8))
	assert.Equal(t, rgb(255, 0, 0), Angstrom2RGB(6500, 1))
}

func TestIntensity2RGB(t *testing.T) {
	assert.Equal(t, rgb(127, 127, 127), Intensity2RGB(0.5))
	assert.Equal(t, rgb(255, 255, 255), Intensity2RGB(1))
	assert.Equal(t, rgb(0, 0, 0), Intensity2RGB(-0.2))
	assert.Equal(t, rgb(255, 255, 255), Intensity2RGB(1.7))
}

func TestPixelColour(t *testing.T) {
	assert.Equal(t, Intensity2RGB(0.5), PixelColour(GreyscaleMode, 0, 10, 6500, 0.5))
	assert.Equal(t, Angstrom2RGB(6500, 0.5), PixelColour(SpectrumMode, 9, 10, 6500, 0.5))

	// split paints greyscale below the middle row
	assert.Equal(t, Angstrom2RGB(6500, 0.5), PixelColour(SplitMode, 5, 10, 6500, 0.5))
	assert.Equal(t, Intensity2RGB(0.5), PixelColour(SplitMode, 6, 10, 6500, 0.5))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("split")
	assert.NoError(t, err)
	assert.Equal(t, SplitMode, m)

	m, err = ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, SpectrumMode, m)

	_, err = ParseMode("sepia")
	assert.Error(t, err)
}

func TestPalette(t *testing.T) {
	p := Palette(3, false)
	assert.Len(t, p, 3)
	assert.NotEqual(t, p[0], p[2])

	grey := Palette(2, true)
	assert.Equal(t, rgb(0, 0, 0), grey[0])
	assert.Equal(t, rgb(0xb0, 0xb0, 0xb0), grey[1])

	assert.Len(t, Palette(1, false), 1)
}

func TestColourMap(t *testing.T) {
	cm := NewColourMap(GreyTheme, 10, 20)

	assert.Equal(t, rgb(0, 0, 0), cm.Colour(10))
	assert.Equal(t, rgb(255, 255, 255), cm.Colour(20))
	assert.Equal(t, rgb(0, 0, 0), cm.Colour(-5))
	assert.Equal(t, rgb(255, 255, 255), cm.Colour(1e9))
	assert.Equal(t, rgb(0, 0, 0), cm.Colour(math.NaN()))

	mid := cm.Colour(15).(color.RGBA)
	assert.InDelta(t, 127, int(mid.R), 1)
}

func TestColourMap_DegenerateRange(t *testing.T) {
	cm := NewColourMap(ThermalTheme, 3, 3)
	assert.Equal(t, cm.Colour(-1), cm.Colour(100))
}

func TestColourMap_Themes(t *testing.T) {
	for theme := range validThemes {
		t.Run(string(theme), func(t *testing.T) {
			cm := NewColourMap(theme, 0, 1)
			lo, hi := cm.Colour(0), cm.Colour(1)
			assert.NotEqual(t, lo, hi)

			_, _, _, a := hi.RGBA()
			assert.Equal(t, uint32(0xffff), a)
		})
	}

	// unknown themes fall back to grey
	assert.Equal(t, NewColourMap(GreyTheme, 0, 1).Colour(1), NewColourMap("sepia", 0, 1).Colour(1))
}

func TestParseTheme(t *testing.T) {
	th, err := ParseTheme("")
	assert.NoError(t, err)
	assert.Equal(t, GreyTheme, th)

	th, err = ParseTheme("thermal")
	assert.NoError(t, err)
	assert.Equal(t, ThermalTheme, th)

	_, err = ParseTheme("sepia")
	assert.Error(t, err)
}
