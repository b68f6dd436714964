package layer

// Kind identifies the closed set of layer variants.
// Every layer is exactly one of these; code that switches over Kind must
// handle all five so a new variant is a compile-visible addition.
type Kind uint8

// Layer kind constants.
const (
	// KindRaster is a plain pixel layer. Its buffer keeps whatever size it
	// was given or grown to.
	KindRaster Kind = iota

	// KindVector is a rasterized vector layer. Its buffer is refit to hug
	// its content after every edit.
	KindVector

	// KindText is a rasterized text layer, refit after every edit.
	// Shaping and layout are a collaborator's concern; the core only holds
	// the rasterized result plus an opaque source payload.
	KindText

	// KindSVG is an imported SVG layer, rasterized once at import time.
	KindSVG

	// KindGroup is a container for other layers. It owns no pixels of its
	// own; membership is by parent id.
	KindGroup
)

// String returns a human-readable name for the layer kind.
func (k Kind) String() string {
	switch k {
	case KindRaster:
		return "Raster"
	case KindVector:
		return "Vector"
	case KindText:
		return "Text"
	case KindSVG:
		return "SVG"
	case KindGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// AutoFit returns true if this layer kind recomputes its bounds to tightly
// contain its content after an edit. Auto-fit layers need structural (not
// patch) undo handling because a fit changes buffer dimensions.
func (k Kind) AutoFit() bool {
	return k == KindVector || k == KindText
}

// HasPixels returns true if this layer kind owns a pixel buffer.
func (k Kind) HasPixels() bool {
	return k != KindGroup
}
