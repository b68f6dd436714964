package paintcore

import "image/color"

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Transparent is the zero color (fully transparent black).
var Transparent = RGBA{}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{
		R: float64(nrgba.R) / 255,
		G: float64(nrgba.G) / 255,
		B: float64(nrgba.B) / 255,
		A: float64(nrgba.A) / 255,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// clamp255 clamps a value to the [0, 255] range.
func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
