package timetable

import (
	"fmt"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

// Card colour constants. The hue varies per lesson name.
const (
	cardSaturation = 0.70
	cardLightness  = 0.50
	cardAlpha      = 0.15
)

// Color is a translucent HSL colour.
type Color struct {
	Hue        int     `json:"hue"`
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
	Alpha      float64 `json:"alpha"`
}

// ColorFor derives a card colour from a lesson name. The hue is the sum of
// the name's UTF-16 code units modulo 360, so the same name always gets the
// same colour.
func ColorFor(name string) Color {
	hue := 0
	for _, u := range utf16.Encode([]rune(name)) {
		hue = (hue + int(u)) % 360
	}
	return Color{
		Hue:        hue,
		Saturation: cardSaturation,
		Lightness:  cardLightness,
		Alpha:      cardAlpha,
	}
}

// CSS renders the colour as a CSS hsl() value.
func (c Color) CSS() string {
	return fmt.Sprintf("hsl(%d, %g%%, %g%%, %g)", c.Hue, c.Saturation*100, c.Lightness*100, c.Alpha)
}

// Hex returns the opaque colour seen when c is drawn over a white
// background, as "#rrggbb".
func (c Color) Hex() string {
	white := colorful.Color{R: 1, G: 1, B: 1}
	solid := colorful.Hsl(float64(c.Hue), c.Saturation, c.Lightness)
	return white.BlendRgb(solid, c.Alpha).Clamped().Hex()
}
