package layer

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/gogpu/paintcore"
)

// ScaleTo resamples the buffer to w x h using a Lanczos filter. This is the
// only lossy resize path; it is never used by the undo patch machinery.
// Dimensions are clamped to [1, MaxDim]. A no-op on empty or pixel-less
// layers.
func (l *Layer) ScaleTo(w, h int) {
	if !l.kind.HasPixels() || l.buf.IsEmpty() {
		return
	}
	if w < 1 || h < 1 {
		paintcore.Logger().Warn("layer: ignoring non-positive scale target",
			"layer", l.id, "w", w, "h", h)
		return
	}
	w = clampDim(w)
	h = clampDim(h)
	if w == l.buf.Width() && h == l.buf.Height() {
		return
	}
	resized := imaging.Resize(l.buf.ToImage(), w, h, imaging.Lanczos)
	l.replaceBuffer(paintcore.FromImage(resized))
}

// Scale resamples the buffer by a uniform factor. See ScaleTo.
func (l *Layer) Scale(factor float64) {
	if factor <= 0 {
		paintcore.Logger().Warn("layer: ignoring non-positive scale factor",
			"layer", l.id, "factor", factor)
		return
	}
	w := int(float64(l.buf.Width())*factor + 0.5)
	h := int(float64(l.buf.Height())*factor + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	l.ScaleTo(w, h)
}

// FlipH mirrors the buffer horizontally in place.
func (l *Layer) FlipH() {
	if !l.kind.HasPixels() || l.buf.IsEmpty() {
		return
	}
	l.replaceBuffer(paintcore.FromImage(imaging.FlipH(l.buf.ToImage())))
}

// FlipV mirrors the buffer vertically in place.
func (l *Layer) FlipV() {
	if !l.kind.HasPixels() || l.buf.IsEmpty() {
		return
	}
	l.replaceBuffer(paintcore.FromImage(imaging.FlipV(l.buf.ToImage())))
}

// Rotate90 rotates the buffer by quarter turns counter-clockwise.
// turns must be 1, 2, or 3; anything else is a logged no-op.
func (l *Layer) Rotate90(turns int) {
	if !l.kind.HasPixels() || l.buf.IsEmpty() {
		return
	}
	var rotate func(image.Image) *image.NRGBA
	switch turns {
	case 1:
		rotate = imaging.Rotate90
	case 2:
		rotate = imaging.Rotate180
	case 3:
		rotate = imaging.Rotate270
	default:
		paintcore.Logger().Warn("layer: ignoring invalid quarter-turn count",
			"layer", l.id, "turns", turns)
		return
	}
	l.replaceBuffer(paintcore.FromImage(rotate(l.buf.ToImage())))
}
