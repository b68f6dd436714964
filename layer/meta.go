package layer

import "github.com/gogpu/paintcore"

// Meta is the per-layer metadata captured by structural history snapshots:
// everything about a layer except its pixel content.
type Meta struct {
	ID       string
	Kind     Kind
	Name     string
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
	Opacity  float64
	Blend    BlendMode
	Visible  bool
	Locked   bool
	ParentID string
	Effects  EffectList
}

// Meta returns a snapshot of the layer's metadata. The effect list is
// cloned so later edits do not leak into the snapshot.
func (l *Layer) Meta() Meta {
	return Meta{
		ID:       l.id,
		Kind:     l.kind,
		Name:     l.name,
		X:        l.x,
		Y:        l.y,
		Rotation: l.rotation,
		ScaleX:   l.scaleX,
		ScaleY:   l.scaleY,
		Opacity:  l.opacity,
		Blend:    l.blend,
		Visible:  l.visible,
		Locked:   l.locked,
		ParentID: l.parentID,
		Effects:  l.effects.Clone(),
	}
}

// Equal reports whether two metadata snapshots are identical.
func (m Meta) Equal(other Meta) bool {
	return m.ID == other.ID &&
		m.Kind == other.Kind &&
		m.Name == other.Name &&
		m.X == other.X && m.Y == other.Y &&
		m.Rotation == other.Rotation &&
		m.ScaleX == other.ScaleX && m.ScaleY == other.ScaleY &&
		m.Opacity == other.Opacity &&
		m.Blend == other.Blend &&
		m.Visible == other.Visible &&
		m.Locked == other.Locked &&
		m.ParentID == other.ParentID &&
		m.Effects.Equal(other.Effects)
}

// ApplyMeta restores previously captured metadata onto the layer. Pixel
// content and the opaque source payload are untouched. A meta with a
// different id is ignored.
func (l *Layer) ApplyMeta(m Meta) {
	if m.ID != l.id {
		paintcore.Logger().Warn("layer: meta id mismatch", "layer", l.id, "meta", m.ID)
		return
	}
	l.name = m.Name
	l.x = m.X
	l.y = m.Y
	l.rotation = m.Rotation
	l.scaleX = m.ScaleX
	l.scaleY = m.ScaleY
	l.opacity = m.Opacity
	l.blend = m.Blend
	l.visible = m.Visible
	l.locked = m.Locked
	l.parentID = m.ParentID
	l.effects = m.Effects.Clone()
	l.version++
}

// Reconstruct builds a detached layer from captured metadata, a pixel
// buffer, and an opaque source payload. History uses it to serialize the
// pre-operation state of a layer from a deferred snapshot after the live
// layer has already been mutated. The buffer is used as given, not copied.
func Reconstruct(m Meta, buf *paintcore.Pixmap, source []byte) *Layer {
	if buf == nil {
		buf = paintcore.NewPixmap(0, 0)
	}
	return &Layer{
		id:       m.ID,
		kind:     m.Kind,
		name:     m.Name,
		buf:      buf,
		x:        m.X,
		y:        m.Y,
		rotation: m.Rotation,
		scaleX:   m.ScaleX,
		scaleY:   m.ScaleY,
		opacity:  m.Opacity,
		blend:    m.Blend,
		visible:  m.Visible,
		locked:   m.Locked,
		parentID: m.ParentID,
		effects:  m.Effects.Clone(),
		source:   source,
	}
}

// ReadPixels copies the pixels of a layer-local rectangle. See
// Pixmap.ReadRegion for clipping semantics.
func (l *Layer) ReadPixels(r paintcore.Rect) []uint8 {
	return l.buf.ReadRegion(r)
}

// WritePixels writes raw pixel data into a layer-local rectangle and bumps
// the content version. History restore paths use this to apply patches.
func (l *Layer) WritePixels(r paintcore.Rect, pixels []uint8) {
	l.buf.WriteRegion(r, pixels)
	l.version++
}
