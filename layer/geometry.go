package layer

import (
	"math"

	"github.com/gogpu/paintcore"
)

// expandPad is the amortizing padding added when a transformed layer grows
// to include a point. Growing by a margin instead of the exact pixel keeps
// a continuous stroke from reallocating the buffer every event.
const expandPad = 32

// layerMatrix returns the layer-local to document transform: translate to
// the buffer center, scale, rotate, translate to the document position.
func (l *Layer) layerMatrix() paintcore.Matrix {
	cx := float64(l.buf.Width()) / 2
	cy := float64(l.buf.Height()) / 2
	return paintcore.Translate(l.x+cx, l.y+cy).
		Multiply(paintcore.RotateDegrees(l.rotation)).
		Multiply(paintcore.Scale(l.scaleX, l.scaleY)).
		Multiply(paintcore.Translate(-cx, -cy))
}

// LayerToDoc maps a layer-local point to document space.
// A fast path bypasses the matrix work for untransformed layers.
func (l *Layer) LayerToDoc(lx, ly float64) (dx, dy float64) {
	if !l.IsTransformed() {
		return l.x + lx, l.y + ly
	}
	p := l.layerMatrix().TransformPoint(paintcore.Pt(lx, ly))
	return p.X, p.Y
}

// DocToLayer maps a document-space point to layer-local space. It is the
// exact inverse of LayerToDoc.
func (l *Layer) DocToLayer(dx, dy float64) (lx, ly float64) {
	if !l.IsTransformed() {
		return dx - l.x, dy - l.y
	}
	p := l.layerMatrix().Invert().TransformPoint(paintcore.Pt(dx, dy))
	return p.X, p.Y
}

// ExpandToInclude grows the buffer so that it covers rect in document
// space, preserving existing pixels at their original document position.
// Growth clamps to MaxDim; when the requested growth would exceed it, the
// side away from existing content is grown first. Only defined for
// untransformed layers; on a rotated or scaled layer it is a logged no-op
// (use ExpandToIncludeDocPoint instead).
func (l *Layer) ExpandToInclude(rect paintcore.Rect) {
	if rect.IsEmpty() || !l.kind.HasPixels() {
		return
	}
	if l.IsTransformed() {
		paintcore.Logger().Warn("layer: ExpandToInclude on transformed layer",
			"layer", l.id)
		return
	}
	if l.buf.IsEmpty() {
		// Nothing to preserve: the buffer simply becomes the rect.
		l.buf.ResizeCanvas(clampDim(rect.W), clampDim(rect.H), 0, 0)
		l.x, l.y = float64(rect.X), float64(rect.Y)
		l.version++
		return
	}

	cur := paintcore.NewRect(
		int(math.Floor(l.x)), int(math.Floor(l.y)),
		l.buf.Width(), l.buf.Height())
	if cur.ContainsRect(rect) {
		return
	}

	growL, growR := growWithin(cur.X-min(cur.X, rect.X),
		max(cur.MaxX(), rect.MaxX())-cur.MaxX(), cur.W)
	growT, growB := growWithin(cur.Y-min(cur.Y, rect.Y),
		max(cur.MaxY(), rect.MaxY())-cur.MaxY(), cur.H)
	if growL == 0 && growR == 0 && growT == 0 && growB == 0 {
		return
	}

	l.buf.ResizeCanvas(cur.W+growL+growR, cur.H+growT+growB, growL, growT)
	l.x = float64(cur.X - growL)
	l.y = float64(cur.Y - growT)
	l.version++
}

// growWithin distributes requested left/right (or top/bottom) growth so the
// resulting extent stays within MaxDim. The larger request — the side away
// from existing content — is satisfied first.
func growWithin(lo, hi, cur int) (int, int) {
	budget := MaxDim - cur
	if budget <= 0 {
		return 0, 0
	}
	if lo+hi <= budget {
		return lo, hi
	}
	if lo > hi {
		lo = min(lo, budget)
		hi = min(hi, budget-lo)
	} else {
		hi = min(hi, budget)
		lo = min(lo, budget-hi)
	}
	return lo, hi
}

// ExpandToIncludeDocPoint grows the buffer so that the document-space point
// plus radius is covered. For transformed layers the point is mapped to
// local space, expansion is computed there with amortizing padding, and the
// new offset is solved so that the document-space position of the old
// content's center is unchanged once rotation and scale are reapplied to
// the larger buffer.
func (l *Layer) ExpandToIncludeDocPoint(dx, dy float64, radius int) {
	if !l.kind.HasPixels() {
		return
	}
	if !l.IsTransformed() {
		l.ExpandToInclude(paintcore.RectAround(int(math.Floor(dx)), int(math.Floor(dy)), radius))
		return
	}

	lx, ly := l.DocToLayer(dx, dy)
	needed := paintcore.RectAround(int(math.Floor(lx)), int(math.Floor(ly)), radius)
	cur := l.buf.Rect()
	if cur.ContainsRect(needed) {
		return
	}

	// Pad only the sides that grow.
	target := cur.Union(needed)
	if target.X < cur.X {
		target.X -= expandPad
		target.W += expandPad
	}
	if target.Y < cur.Y {
		target.Y -= expandPad
		target.H += expandPad
	}
	if target.MaxX() > cur.MaxX() {
		target.W += expandPad
	}
	if target.MaxY() > cur.MaxY() {
		target.H += expandPad
	}

	growL, growR := growWithin(cur.X-target.X, target.MaxX()-cur.MaxX(), cur.W)
	growT, growB := growWithin(cur.Y-target.Y, target.MaxY()-cur.MaxY(), cur.H)
	if growL == 0 && growR == 0 && growT == 0 && growB == 0 {
		return
	}
	newW := cur.W + growL + growR
	newH := cur.H + growT + growB

	// Old content center in document space is invariant under the resize.
	oldCenterX := l.x + float64(cur.W)/2
	oldCenterY := l.y + float64(cur.H)/2

	l.buf.ResizeCanvas(newW, newH, growL, growT)

	// q: old content center in the new buffer's local coordinates.
	q := paintcore.Pt(float64(growL)+float64(cur.W)/2, float64(growT)+float64(cur.H)/2)
	center := paintcore.Pt(float64(newW)/2, float64(newH)/2)
	rs := paintcore.RotateDegrees(l.rotation).Multiply(paintcore.Scale(l.scaleX, l.scaleY))
	v := rs.TransformVector(q.Sub(center))
	l.x = oldCenterX - v.X - center.X
	l.y = oldCenterY - v.Y - center.Y
	l.version++
}

// ContentBounds returns the tight bounding box (in layer-local pixels) of
// non-transparent content. ok is false for fully transparent layers. Only
// defined for untransformed layers; on a rotated or scaled layer it is a
// logged no-op returning ok=false.
func (l *Layer) ContentBounds() (r paintcore.Rect, ok bool) {
	if !l.kind.HasPixels() {
		return paintcore.Rect{}, false
	}
	if l.IsTransformed() {
		paintcore.Logger().Warn("layer: ContentBounds on transformed layer",
			"layer", l.id)
		return paintcore.Rect{}, false
	}
	return l.buf.ContentBounds()
}

// FitToContent crops the buffer to the tight bounding box of its content,
// adjusting the offset so pixels keep their document position. A fully
// transparent layer collapses to a 0x0 buffer. A logged no-op on
// transformed layers.
func (l *Layer) FitToContent() {
	if !l.kind.HasPixels() || l.buf.IsEmpty() {
		return
	}
	if l.IsTransformed() {
		paintcore.Logger().Warn("layer: FitToContent on transformed layer",
			"layer", l.id)
		return
	}
	cb, ok := l.buf.ContentBounds()
	if !ok {
		l.buf.ResizeCanvas(0, 0, 0, 0)
		l.version++
		return
	}
	if cb == l.buf.Rect() {
		return
	}
	l.buf.ResizeCanvas(cb.W, cb.H, -cb.X, -cb.Y)
	l.x += float64(cb.X)
	l.y += float64(cb.Y)
	l.version++
}

// TrimToContent crops the buffer to its content bounds plus padding pixels
// on every side (clipped to the current buffer). Same restrictions as
// FitToContent.
func (l *Layer) TrimToContent(padding int) {
	if !l.kind.HasPixels() || l.buf.IsEmpty() {
		return
	}
	if l.IsTransformed() {
		paintcore.Logger().Warn("layer: TrimToContent on transformed layer",
			"layer", l.id)
		return
	}
	cb, ok := l.buf.ContentBounds()
	if !ok {
		l.buf.ResizeCanvas(0, 0, 0, 0)
		l.version++
		return
	}
	if padding > 0 {
		cb = cb.Inset(-padding).Intersect(l.buf.Rect())
	}
	if cb == l.buf.Rect() {
		return
	}
	l.buf.ResizeCanvas(cb.W, cb.H, -cb.X, -cb.Y)
	l.x += float64(cb.X)
	l.y += float64(cb.Y)
	l.version++
}
