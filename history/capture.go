package history

import (
	"math"
	"time"

	"github.com/gogpu/paintcore"
	"github.com/gogpu/paintcore/layer"
)

// layerCapture tracks the before-state of one layer inside a capture
// session. It is in exactly one of two modes:
//
//   - bounded: the capture rect was known up front; before holds the
//     pixels read at that moment and snapshot is nil.
//   - deferred: the rect was unknown (continuous gesture); snapshot holds
//     a full-buffer copy and pixel extraction happens at commit time.
type layerCapture struct {
	layerID string

	rect    paintcore.Rect // layer-local known rect
	hasRect bool
	before  []uint8 // bounded mode only

	snapshot *paintcore.Pixmap // deferred mode only
	meta     layer.Meta        // metadata at capture time (deferred mode)
	source   []byte

	// Buffer geometry at capture time, for mid-session resize detection.
	origW, origH   int
	origX, origY   float64
	autoFit        bool
}

// session is the single-slot mutable state of an in-progress undoable
// action, created by BeginCapture and consumed exactly once by
// CommitCapture or discarded by AbortCapture.
type session struct {
	label   string
	started time.Time
	order   []string
	byLayer map[string]*layerCapture

	structure     *StructureSnapshot // before-snapshot, nil unless structural
	effectsBefore map[string]layer.EffectList
	deleted       map[string][]byte // registered deleted layers, pre-op serialized
	resized       map[string][]byte // registered resized layers, pre-op serialized
}

func newSession(label string) *session {
	return &session{
		label:         label,
		started:       time.Now(),
		byLayer:       make(map[string]*layerCapture),
		effectsBefore: make(map[string]layer.EffectList),
		deleted:       make(map[string][]byte),
		resized:       make(map[string][]byte),
	}
}

// add registers a layer with the session, reading its before-state.
// bounds, when non-nil, is a document-space rect bounding the upcoming
// edit. Auto-fit layers always capture deferred: their commit path needs
// the full pre-operation buffer regardless of the edit's extent.
func (sess *session) add(l *layer.Layer, bounds *paintcore.Rect) {
	if _, dup := sess.byLayer[l.ID()]; dup {
		return
	}
	c := &layerCapture{
		layerID: l.ID(),
		origW:   l.Width(),
		origH:   l.Height(),
		autoFit: l.AutoFit(),
	}
	c.origX, c.origY = l.Offset()

	if bounds != nil && !c.autoFit {
		c.rect = docRectToLocal(l, *bounds).Intersect(l.Buffer().Rect())
		c.hasRect = true
		c.before = l.ReadPixels(c.rect)
	} else {
		c.snapshot = l.Buffer().Clone()
		c.meta = l.Meta()
		if src := l.Source(); src != nil {
			c.source = append([]byte(nil), src...)
		}
	}

	sess.order = append(sess.order, l.ID())
	sess.byLayer[l.ID()] = c
}

// expand widens a capture's known rect to include a document-space point
// plus radius. For a bounded capture, the newly included area's before
// value is read from the live layer: by construction no edit has touched
// pixels outside the previously known rect within this session, so the
// live pixels there are still the original ones.
func (c *layerCapture) expand(l *layer.Layer, dx, dy float64, radius int) {
	lx, ly := l.DocToLayer(dx, dy)
	point := paintcore.RectAround(int(math.Floor(lx)), int(math.Floor(ly)), radius)

	if c.snapshot != nil {
		// Deferred mode: the snapshot already holds every before pixel;
		// only the known rect needs widening for commit-time extraction.
		if c.hasRect {
			c.rect = c.rect.Union(point)
		} else {
			c.rect = point
			c.hasRect = true
		}
		return
	}

	grown := c.rect.Union(point).Intersect(l.Buffer().Rect())
	if grown == c.rect {
		return
	}
	before := l.ReadPixels(grown)
	blitRegion(before, grown, c.before, c.rect)
	c.rect = grown
	c.before = before
}

// resizedSince reports whether the layer's buffer geometry changed after
// the capture was taken. Such layers cannot be expressed as a fixed-rect
// patch.
func (c *layerCapture) resizedSince(l *layer.Layer) bool {
	x, y := l.Offset()
	return l.Width() != c.origW || l.Height() != c.origH ||
		x != c.origX || y != c.origY
}

// preSerialized builds the serialized pre-operation state of a deferred
// capture from its snapshot, not the live buffer (the live buffer may
// already be mutated).
func (c *layerCapture) preSerialized() ([]byte, error) {
	return layer.Reconstruct(c.meta, c.snapshot, c.source).Serialize()
}

// docRectToLocal maps a document-space rect to a layer-local one. For
// transformed layers the four corners are mapped and their bounding box
// taken, which over-covers but never under-covers.
func docRectToLocal(l *layer.Layer, r paintcore.Rect) paintcore.Rect {
	if rot := l.Rotation(); rot == 0 {
		if sx, sy := l.ScaleFactors(); sx == 1 && sy == 1 {
			x, y := l.Offset()
			return r.Translate(-int(math.Floor(x)), -int(math.Floor(y)))
		}
	}
	corners := [4][2]float64{
		{float64(r.X), float64(r.Y)},
		{float64(r.MaxX()), float64(r.Y)},
		{float64(r.MaxX()), float64(r.MaxY())},
		{float64(r.X), float64(r.MaxY())},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, corner := range corners {
		lx, ly := l.DocToLayer(corner[0], corner[1])
		minX = math.Min(minX, lx)
		minY = math.Min(minY, ly)
		maxX = math.Max(maxX, lx)
		maxY = math.Max(maxY, ly)
	}
	return paintcore.NewRect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))-int(math.Floor(minX)),
		int(math.Ceil(maxY))-int(math.Floor(minY)))
}
