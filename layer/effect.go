package layer

import "github.com/gogpu/paintcore"

// EffectType identifies the type of layer effect.
type EffectType uint8

// Effect type constants.
const (
	// EffectBlur is a Gaussian blur with a radius in pixels.
	EffectBlur EffectType = iota

	// EffectDropShadow is an offset, blurred, tinted silhouette painted
	// behind the layer content.
	EffectDropShadow

	// EffectColorMatrix remaps colors through a 4x5 matrix.
	EffectColorMatrix
)

// String returns a human-readable name for the effect type.
func (t EffectType) String() string {
	switch t {
	case EffectBlur:
		return "Blur"
	case EffectDropShadow:
		return "DropShadow"
	case EffectColorMatrix:
		return "ColorMatrix"
	default:
		return "Unknown"
	}
}

// Effect is one entry in a layer's effect list. The core does not apply
// effects (rendering is a collaborator's concern); it stores, diffs, and
// restores them.
type Effect struct {
	Type    EffectType     `msgpack:"type"`
	Enabled bool           `msgpack:"enabled"`
	Radius  float64        `msgpack:"radius,omitempty"`
	OffsetX float64        `msgpack:"ox,omitempty"`
	OffsetY float64        `msgpack:"oy,omitempty"`
	Color   paintcore.RGBA `msgpack:"color,omitempty"`
	Matrix  []float64      `msgpack:"matrix,omitempty"`
}

// Equal reports whether two effects are identical.
func (e Effect) Equal(other Effect) bool {
	if e.Type != other.Type || e.Enabled != other.Enabled ||
		e.Radius != other.Radius ||
		e.OffsetX != other.OffsetX || e.OffsetY != other.OffsetY ||
		e.Color != other.Color ||
		len(e.Matrix) != len(other.Matrix) {
		return false
	}
	for i := range e.Matrix {
		if e.Matrix[i] != other.Matrix[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the effect.
func (e Effect) Clone() Effect {
	c := e
	if e.Matrix != nil {
		c.Matrix = make([]float64, len(e.Matrix))
		copy(c.Matrix, e.Matrix)
	}
	return c
}

// EffectList is an ordered list of layer effects.
type EffectList []Effect

// Clone returns a deep copy of the list. A nil list clones to nil.
func (l EffectList) Clone() EffectList {
	if l == nil {
		return nil
	}
	c := make(EffectList, len(l))
	for i, e := range l {
		c[i] = e.Clone()
	}
	return c
}

// Equal reports whether two lists hold identical effects in the same order.
func (l EffectList) Equal(other EffectList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if !l[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// MemorySize returns an estimate of the bytes held by the list, used for
// history memory accounting.
func (l EffectList) MemorySize() int64 {
	const perEffect = 96 // struct fields plus slice headers
	size := int64(len(l)) * perEffect
	for _, e := range l {
		size += int64(len(e.Matrix)) * 8
	}
	return size
}
