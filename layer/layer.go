// Package layer implements the layer geometry and hierarchy model of
// paintcore: positioned, optionally rotated/scaled pixel buffers that can
// grow and shrink without losing content, and the ordered Stack that holds
// them.
package layer

import (
	"math"

	"github.com/oklog/ulid/v2"

	"github.com/gogpu/paintcore"
)

// MaxDim is the maximum width or height of a layer buffer in pixels.
// Growth paths clamp to this limit rather than failing.
const MaxDim = 8192

// Layer is a rectangular pixel buffer with a document-space position,
// rotation, and scale, plus compositing metadata. Rotation and scale apply
// around the buffer's own center.
//
// A Layer is not safe for concurrent use; callers serialize access the same
// way they serialize history operations.
type Layer struct {
	id       string
	kind     Kind
	name     string
	buf      *paintcore.Pixmap
	x, y     float64 // doc-space position of the buffer's top-left corner
	rotation float64 // degrees
	scaleX   float64
	scaleY   float64
	opacity  float64
	blend    BlendMode
	visible  bool
	locked   bool
	parentID string
	effects  EffectList
	source   []byte // opaque payload for Vector/Text/SVG kinds
	version  uint64
}

// New creates a layer of the given kind with a w x h transparent buffer.
// Dimensions are clamped to [0, MaxDim]. Group layers get an empty buffer
// regardless of the requested size.
func New(kind Kind, name string, w, h int) *Layer {
	if !kind.HasPixels() {
		w, h = 0, 0
	}
	w = clampDim(w)
	h = clampDim(h)
	return &Layer{
		id:      ulid.Make().String(),
		kind:    kind,
		name:    name,
		buf:     paintcore.NewPixmap(w, h),
		scaleX:  1,
		scaleY:  1,
		opacity: 1,
		blend:   BlendNormal,
		visible: true,
	}
}

// NewRaster creates a plain raster layer.
func NewRaster(name string, w, h int) *Layer {
	return New(KindRaster, name, w, h)
}

// NewGroup creates a group layer. Groups default to the passthrough blend
// mode so their opacity is not multiplied into children.
func NewGroup(name string) *Layer {
	g := New(KindGroup, name, 0, 0)
	g.blend = BlendPassthrough
	return g
}

// ID returns the layer's unique id.
func (l *Layer) ID() string { return l.id }

// Kind returns the layer's variant.
func (l *Layer) Kind() Kind { return l.kind }

// Name returns the layer's display name.
func (l *Layer) Name() string { return l.name }

// SetName renames the layer.
func (l *Layer) SetName(name string) {
	l.name = name
	l.version++
}

// Buffer returns the layer's pixel buffer.
func (l *Layer) Buffer() *paintcore.Pixmap { return l.buf }

// Width returns the buffer width in pixels.
func (l *Layer) Width() int { return l.buf.Width() }

// Height returns the buffer height in pixels.
func (l *Layer) Height() int { return l.buf.Height() }

// Offset returns the doc-space position of the buffer's top-left corner.
func (l *Layer) Offset() (x, y float64) { return l.x, l.y }

// SetOffset moves the layer in document space.
func (l *Layer) SetOffset(x, y float64) {
	l.x, l.y = x, y
	l.version++
}

// Rotation returns the rotation in degrees.
func (l *Layer) Rotation() float64 { return l.rotation }

// SetRotation sets the rotation in degrees around the buffer center.
// Non-finite values are a logged no-op.
func (l *Layer) SetRotation(deg float64) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		paintcore.Logger().Warn("layer: ignoring non-finite rotation",
			"layer", l.id, "deg", deg)
		return
	}
	l.rotation = deg
	l.version++
}

// ScaleFactors returns the x and y scale factors.
func (l *Layer) ScaleFactors() (sx, sy float64) { return l.scaleX, l.scaleY }

// SetScaleFactors sets the scale factors applied around the buffer center.
// Non-finite or zero values are a logged no-op.
func (l *Layer) SetScaleFactors(sx, sy float64) {
	if !isFinitePositive(math.Abs(sx)) || !isFinitePositive(math.Abs(sy)) {
		paintcore.Logger().Warn("layer: ignoring invalid scale factors",
			"layer", l.id, "sx", sx, "sy", sy)
		return
	}
	l.scaleX, l.scaleY = sx, sy
	l.version++
}

// Opacity returns the layer opacity in [0, 1].
func (l *Layer) Opacity() float64 { return l.opacity }

// SetOpacity sets the layer opacity, clamped to [0, 1].
func (l *Layer) SetOpacity(op float64) {
	if math.IsNaN(op) {
		paintcore.Logger().Warn("layer: ignoring NaN opacity", "layer", l.id)
		return
	}
	l.opacity = math.Min(1, math.Max(0, op))
	l.version++
}

// Blend returns the layer's blend mode.
func (l *Layer) Blend() BlendMode { return l.blend }

// SetBlend sets the blend mode. Unknown modes are a logged no-op.
func (l *Layer) SetBlend(m BlendMode) {
	if !m.IsValid() {
		paintcore.Logger().Warn("layer: ignoring unknown blend mode",
			"layer", l.id, "mode", uint8(m))
		return
	}
	l.blend = m
	l.version++
}

// Visible returns the layer's own visibility flag.
func (l *Layer) Visible() bool { return l.visible }

// SetVisible sets the layer's own visibility flag.
func (l *Layer) SetVisible(v bool) {
	l.visible = v
	l.version++
}

// Locked returns the layer's own lock flag.
func (l *Layer) Locked() bool { return l.locked }

// SetLocked sets the layer's own lock flag.
func (l *Layer) SetLocked(v bool) {
	l.locked = v
	l.version++
}

// ParentID returns the id of the group this layer belongs to, or "" for a
// top-level layer.
func (l *Layer) ParentID() string { return l.parentID }

// Effects returns the layer's effect list. Callers must not mutate it;
// use SetEffects with a modified clone instead.
func (l *Layer) Effects() EffectList { return l.effects }

// SetEffects replaces the layer's effect list.
func (l *Layer) SetEffects(list EffectList) {
	l.effects = list
	l.version++
}

// Source returns the opaque source payload of a Vector/Text/SVG layer
// (its geometry or markup, owned by collaborators).
func (l *Layer) Source() []byte { return l.source }

// SetSource replaces the opaque source payload.
func (l *Layer) SetSource(src []byte) {
	l.source = src
	l.version++
}

// Version returns the content-version counter. It increments on every
// mutation and lets caches detect staleness without hashing pixels.
func (l *Layer) Version() uint64 { return l.version }

// AutoFit returns true if the layer refits its bounds after edits.
func (l *Layer) AutoFit() bool { return l.kind.AutoFit() }

// IsTransformed returns true if the layer has a non-identity rotation or
// scale. Several geometry operations only apply to untransformed layers.
func (l *Layer) IsTransformed() bool {
	return l.rotation != 0 || l.scaleX != 1 || l.scaleY != 1
}

// DocBounds returns the axis-aligned doc-space bounding box of the buffer,
// accounting for rotation and scale.
func (l *Layer) DocBounds() paintcore.Rect {
	w, h := l.buf.Width(), l.buf.Height()
	if !l.IsTransformed() {
		return paintcore.NewRect(int(math.Floor(l.x)), int(math.Floor(l.y)), w, h)
	}
	m := l.layerMatrix()
	corners := []paintcore.Point{
		{X: 0, Y: 0},
		{X: float64(w), Y: 0},
		{X: float64(w), Y: float64(h)},
		{X: 0, Y: float64(h)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		p := m.TransformPoint(c)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return paintcore.NewRect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX-minX)), int(math.Ceil(maxY-minY)))
}

// SetPixel writes one pixel in layer-local coordinates.
func (l *Layer) SetPixel(x, y int, c paintcore.RGBA) {
	l.buf.SetPixel(x, y, c)
	l.version++
}

// PixelAt reads one pixel in layer-local coordinates.
func (l *Layer) PixelAt(x, y int) paintcore.RGBA {
	return l.buf.GetPixel(x, y)
}

// FillRect fills a layer-local rectangle. A no-op on empty layers.
func (l *Layer) FillRect(r paintcore.Rect, c paintcore.RGBA) {
	if l.buf.IsEmpty() {
		return
	}
	l.buf.FillRect(r, c)
	l.version++
}

// Clear makes the entire buffer transparent.
func (l *Layer) Clear() {
	l.buf.Clear(paintcore.Transparent)
	l.version++
}

// replaceBuffer swaps in a new pixel buffer, used by the resampling paths.
func (l *Layer) replaceBuffer(buf *paintcore.Pixmap) {
	l.buf = buf
	l.version++
}

func clampDim(d int) int {
	if d < 0 {
		return 0
	}
	if d > MaxDim {
		return MaxDim
	}
	return d
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
