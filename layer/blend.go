package layer

import (
	"image"

	"github.com/anthonynsimon/bild/blend"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/paintcore"
)

// BlendMode represents a compositing blend mode.
type BlendMode uint8

// Blend mode constants. BlendPassthrough is meaningful only on groups: it
// is the sentinel for "do not multiply my opacity into children" and
// composites as BlendNormal if a group is ever painted directly.
const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendAdd
	BlendSubtract
	BlendDivide
	BlendLinearBurn
	BlendLinearLight
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
	BlendPassthrough
)

// String returns a human-readable name for the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDarken:
		return "Darken"
	case BlendLighten:
		return "Lighten"
	case BlendColorDodge:
		return "ColorDodge"
	case BlendColorBurn:
		return "ColorBurn"
	case BlendHardLight:
		return "HardLight"
	case BlendSoftLight:
		return "SoftLight"
	case BlendDifference:
		return "Difference"
	case BlendExclusion:
		return "Exclusion"
	case BlendAdd:
		return "Add"
	case BlendSubtract:
		return "Subtract"
	case BlendDivide:
		return "Divide"
	case BlendLinearBurn:
		return "LinearBurn"
	case BlendLinearLight:
		return "LinearLight"
	case BlendHue:
		return "Hue"
	case BlendSaturation:
		return "Saturation"
	case BlendColor:
		return "Color"
	case BlendLuminosity:
		return "Luminosity"
	case BlendPassthrough:
		return "Passthrough"
	default:
		return "Unknown"
	}
}

// IsValid reports whether m is a known blend mode.
func (m BlendMode) IsValid() bool {
	return m <= BlendPassthrough
}

// isHSL reports whether the mode blends in hue/saturation/lightness space.
func (m BlendMode) isHSL() bool {
	switch m {
	case BlendHue, BlendSaturation, BlendColor, BlendLuminosity:
		return true
	}
	return false
}

// bildFunc returns the separable blend function for modes covered by
// bild/blend, or nil for modes handled elsewhere.
func (m BlendMode) bildFunc() func(bg, fg image.Image) *image.RGBA {
	switch m {
	case BlendMultiply:
		return blend.Multiply
	case BlendScreen:
		return blend.Screen
	case BlendOverlay:
		return blend.Overlay
	case BlendDarken:
		return blend.Darken
	case BlendLighten:
		return blend.Lighten
	case BlendColorDodge:
		return blend.ColorDodge
	case BlendColorBurn:
		return blend.ColorBurn
	case BlendHardLight:
		// Hard light is overlay with source and destination exchanged.
		return func(bg, fg image.Image) *image.RGBA { return blend.Overlay(fg, bg) }
	case BlendSoftLight:
		return blend.SoftLight
	case BlendDifference:
		return blend.Difference
	case BlendExclusion:
		return blend.Exclusion
	case BlendAdd:
		return blend.Add
	case BlendSubtract:
		return blend.Subtract
	case BlendDivide:
		return blend.Divide
	case BlendLinearBurn:
		return blend.LinearBurn
	case BlendLinearLight:
		return blend.LinearLight
	}
	return nil
}

// Composite paints src over dst with src's top-left at (dx, dy) in dst
// coordinates, applying the blend mode and a global opacity in [0, 1].
// Pixels of src outside dst are clipped. dst is modified in place.
func Composite(dst, src *paintcore.Pixmap, dx, dy int, mode BlendMode, opacity float64) {
	if dst == nil || src == nil || dst.IsEmpty() || src.IsEmpty() {
		return
	}
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	overlap := dst.Rect().Intersect(paintcore.NewRect(dx, dy, src.Width(), src.Height()))
	if overlap.IsEmpty() {
		return
	}

	if (mode == BlendNormal || mode == BlendPassthrough) && opacity == 1 {
		// Fast path: plain source-over via x/image/draw.
		dstImg := dst.ToImage()
		srcImg := src.ToImage()
		xdraw.Draw(dstImg, overlap.ToImageRect(), srcImg,
			image.Pt(overlap.X-dx, overlap.Y-dy), xdraw.Over)
		dst.WriteRegion(dst.Rect(), dstImg.Pix)
		return
	}

	bg := dst.ReadRegion(overlap)
	fg := src.ReadRegion(overlap.Translate(-dx, -dy))

	var blended *image.RGBA
	if f := mode.bildFunc(); f != nil {
		// bild composites by pixel alpha internally. Feeding it opaque
		// planes makes it return the pure blend color, so the alpha
		// weighting below is applied exactly once.
		blended = f(opaqueImage(bg, overlap.W, overlap.H), opaqueImage(fg, overlap.W, overlap.H))
	}

	for i := 0; i < len(bg); i += 4 {
		fa := float64(fg[i+3]) / 255 * opacity
		if fa == 0 {
			continue
		}
		var cr, cg, cb float64
		switch {
		case blended != nil:
			cr = float64(blended.Pix[i+0]) / 255
			cg = float64(blended.Pix[i+1]) / 255
			cb = float64(blended.Pix[i+2]) / 255
		case mode.isHSL():
			cr, cg, cb = blendHSL(mode,
				float64(bg[i+0])/255, float64(bg[i+1])/255, float64(bg[i+2])/255,
				float64(fg[i+0])/255, float64(fg[i+1])/255, float64(fg[i+2])/255)
		default: // Normal, Passthrough
			cr = float64(fg[i+0]) / 255
			cg = float64(fg[i+1]) / 255
			cb = float64(fg[i+2]) / 255
		}

		ba := float64(bg[i+3]) / 255
		// Where the backdrop is transparent the blend result has nothing to
		// blend against; use the source color as-is.
		if ba == 0 {
			cr = float64(fg[i+0]) / 255
			cg = float64(fg[i+1]) / 255
			cb = float64(fg[i+2]) / 255
		}

		outA := fa + ba*(1-fa)
		if outA == 0 {
			bg[i+0], bg[i+1], bg[i+2], bg[i+3] = 0, 0, 0, 0
			continue
		}
		br := float64(bg[i+0]) / 255
		bgc := float64(bg[i+1]) / 255
		bb := float64(bg[i+2]) / 255
		bg[i+0] = clampByte((cr*fa + br*ba*(1-fa)) / outA * 255)
		bg[i+1] = clampByte((cg*fa + bgc*ba*(1-fa)) / outA * 255)
		bg[i+2] = clampByte((cb*fa + bb*ba*(1-fa)) / outA * 255)
		bg[i+3] = clampByte(outA * 255)
	}
	dst.WriteRegion(overlap, bg)
}

// blendHSL combines backdrop and source channels in HSL space.
func blendHSL(mode BlendMode, br, bg, bb, fr, fg, fb float64) (r, g, b float64) {
	back := colorful.Color{R: br, G: bg, B: bb}
	front := colorful.Color{R: fr, G: fg, B: fb}
	bh, bs, bl := back.Hsl()
	fh, fs, fl := front.Hsl()

	var out colorful.Color
	switch mode {
	case BlendHue:
		out = colorful.Hsl(fh, bs, bl)
	case BlendSaturation:
		out = colorful.Hsl(bh, fs, bl)
	case BlendColor:
		out = colorful.Hsl(fh, fs, bl)
	case BlendLuminosity:
		out = colorful.Hsl(bh, bs, fl)
	default:
		out = front
	}
	out = out.Clamped()
	return out.R, out.G, out.B
}

// opaqueImage copies raw RGBA bytes into an image.NRGBA with the alpha
// channel forced fully opaque.
func opaqueImage(pix []uint8, w, h int) *image.NRGBA {
	out := make([]uint8, len(pix))
	copy(out, pix)
	for i := 3; i < len(out); i += 4 {
		out[i] = 255
	}
	return &image.NRGBA{Pix: out, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}

// clampByte converts a float in [0, 255] to a byte, clamping overflow.
func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
