package layer

import (
	"errors"
	"math"

	"github.com/gogpu/paintcore"
)

// Stack-level sentinel errors. These are the typed, caller-inspectable
// channel for non-fatal failures; none of them leaves the stack in a
// partially mutated state.
var (
	// ErrLayerNotFound is returned when an id resolves to no layer.
	ErrLayerNotFound = errors.New("layer: not found")

	// ErrNotAGroup is returned when a group operation targets a non-group.
	ErrNotAGroup = errors.New("layer: target is not a group")

	// ErrCycle is returned when moving a group into its own descendant.
	ErrCycle = errors.New("layer: move would create a hierarchy cycle")

	// ErrNoMergeTarget is returned by MergeDown when no sibling with pixels
	// exists below the source layer.
	ErrNoMergeTarget = errors.New("layer: no layer below to merge into")

	// ErrTransformedMerge is returned by MergeDown when either layer has a
	// non-identity rotation or scale.
	ErrTransformedMerge = errors.New("layer: cannot merge transformed layers")
)

// Stack is an ordered collection of layers and groups with a parent-id
// based hierarchy. Index 0 is the topmost layer. Groups own no children
// directly; membership is the child's ParentID, so no ownership cycles are
// representable and reordering is a flat slice operation.
type Stack struct {
	layers     []*Layer
	active     int // index into layers, or -1
	docW, docH int
	selections map[string]*paintcore.Mask
}

// NewStack creates an empty stack for a document of the given size.
func NewStack(docW, docH int) *Stack {
	return &Stack{
		active:     -1,
		docW:       docW,
		docH:       docH,
		selections: make(map[string]*paintcore.Mask),
	}
}

// Len returns the number of layers (groups included).
func (s *Stack) Len() int { return len(s.layers) }

// Layers returns the ordered layer list, topmost first. The returned slice
// is the stack's own; callers must not reorder it.
func (s *Stack) Layers() []*Layer { return s.layers }

// LayerAt returns the layer at index i, or nil if out of range.
func (s *Stack) LayerAt(i int) *Layer {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i]
}

// IndexOf returns the index of the layer with the given id, or -1.
func (s *Stack) IndexOf(id string) int {
	for i, l := range s.layers {
		if l.id == id {
			return i
		}
	}
	return -1
}

// LayerByID returns the layer with the given id, or nil.
func (s *Stack) LayerByID(id string) *Layer {
	if i := s.IndexOf(id); i >= 0 {
		return s.layers[i]
	}
	return nil
}

// Insert places l at index i (clamped to the valid range) and makes it the
// active layer.
func (s *Stack) Insert(l *Layer, i int) {
	if i < 0 {
		i = 0
	}
	if i > len(s.layers) {
		i = len(s.layers)
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[i+1:], s.layers[i:])
	s.layers[i] = l
	s.active = i
}

// Remove removes the layer with the given id and returns it. Children of a
// removed group become top-level (their parent reference no longer
// resolves and is cleared). Returns nil if the id is unknown.
func (s *Stack) Remove(id string) *Layer {
	i := s.IndexOf(id)
	if i < 0 {
		return nil
	}
	l := s.layers[i]
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	if l.kind == KindGroup {
		for _, child := range s.layers {
			if child.parentID == id {
				child.parentID = ""
			}
		}
	}
	s.clampActive()
	return l
}

// Move moves the layer with the given id to index i.
func (s *Stack) Move(id string, i int) error {
	from := s.IndexOf(id)
	if from < 0 {
		return ErrLayerNotFound
	}
	if i < 0 {
		i = 0
	}
	if i >= len(s.layers) {
		i = len(s.layers) - 1
	}
	l := s.layers[from]
	s.layers = append(s.layers[:from], s.layers[from+1:]...)
	s.layers = append(s.layers, nil)
	copy(s.layers[i+1:], s.layers[i:])
	s.layers[i] = l
	s.active = i
	return nil
}

// MoveToTop moves the layer above all of its siblings (layers sharing the
// same parent). Layers under other parents are not crossed in sibling
// terms, but the flat order places the layer at its topmost sibling's
// position.
func (s *Stack) MoveToTop(id string) error {
	from := s.IndexOf(id)
	if from < 0 {
		return ErrLayerNotFound
	}
	l := s.layers[from]
	for i, other := range s.layers {
		if other.parentID == l.parentID {
			return s.Move(id, i)
		}
	}
	return nil
}

// MoveToBottom moves the layer below all of its siblings.
func (s *Stack) MoveToBottom(id string) error {
	from := s.IndexOf(id)
	if from < 0 {
		return ErrLayerNotFound
	}
	l := s.layers[from]
	for i := len(s.layers) - 1; i >= 0; i-- {
		if s.layers[i].parentID == l.parentID {
			return s.Move(id, i)
		}
	}
	return nil
}

// MoveToGroup reparents the layer into the given group, or to the top
// level if groupID is empty. Moving a group into its own descendant is
// rejected with ErrCycle.
func (s *Stack) MoveToGroup(id, groupID string) error {
	l := s.LayerByID(id)
	if l == nil {
		return ErrLayerNotFound
	}
	if groupID == "" {
		l.parentID = ""
		l.version++
		return nil
	}
	g := s.LayerByID(groupID)
	if g == nil {
		return ErrLayerNotFound
	}
	if g.kind != KindGroup {
		return ErrNotAGroup
	}
	// Walk the target's ancestor chain; finding the moved layer there
	// means the move would nest a group inside itself.
	for p := g; p != nil; p = s.LayerByID(p.parentID) {
		if p.id == id {
			return ErrCycle
		}
	}
	l.parentID = groupID
	l.version++
	return nil
}

// ChildrenOf returns the direct children of the group with the given id,
// in stack order.
func (s *Stack) ChildrenOf(groupID string) []*Layer {
	var out []*Layer
	for _, l := range s.layers {
		if l.parentID == groupID {
			out = append(out, l)
		}
	}
	return out
}

// EffectiveVisible resolves visibility through the ancestor chain: a layer
// is effectively visible only if it and every ancestor group are visible.
func (s *Stack) EffectiveVisible(id string) bool {
	for l := s.LayerByID(id); l != nil; l = s.LayerByID(l.parentID) {
		if !l.visible {
			return false
		}
		if l.parentID == "" {
			return true
		}
	}
	return false
}

// EffectiveOpacity resolves opacity through the ancestor chain. A group
// with the passthrough blend mode does not multiply its opacity into its
// children.
func (s *Stack) EffectiveOpacity(id string) float64 {
	l := s.LayerByID(id)
	if l == nil {
		return 0
	}
	op := l.opacity
	for p := s.LayerByID(l.parentID); p != nil; p = s.LayerByID(p.parentID) {
		if p.blend != BlendPassthrough {
			op *= p.opacity
		}
	}
	return op
}

// EffectiveLocked resolves the lock flag through the ancestor chain: a
// layer is effectively locked if it or any ancestor group is locked.
func (s *Stack) EffectiveLocked(id string) bool {
	for l := s.LayerByID(id); l != nil; l = s.LayerByID(l.parentID) {
		if l.locked {
			return true
		}
	}
	return false
}

// ActiveIndex returns the active layer index, or -1.
func (s *Stack) ActiveIndex() int { return s.active }

// SetActiveIndex sets the active layer index. Out-of-range values clear
// the selection to -1.
func (s *Stack) SetActiveIndex(i int) {
	if i < 0 || i >= len(s.layers) {
		s.active = -1
		return
	}
	s.active = i
}

// ActiveLayer returns the active layer, or nil.
func (s *Stack) ActiveLayer() *Layer { return s.LayerAt(s.active) }

// DocSize returns the document dimensions.
func (s *Stack) DocSize() (w, h int) { return s.docW, s.docH }

// SetDocSize sets the document dimensions.
func (s *Stack) SetDocSize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.docW, s.docH = w, h
}

// SaveSelection stores a named selection mask. A nil mask deletes the name.
func (s *Stack) SaveSelection(name string, m *paintcore.Mask) {
	if m == nil {
		delete(s.selections, name)
		return
	}
	s.selections[name] = m
}

// Selection returns the named selection mask, or nil.
func (s *Stack) Selection(name string) *paintcore.Mask {
	return s.selections[name]
}

// Selections returns the saved selection masks keyed by name. The map is
// the stack's own; callers must not mutate it.
func (s *Stack) Selections() map[string]*paintcore.Mask {
	return s.selections
}

// Reorder rearranges the stack to match the given id order, topmost first.
// Ids that resolve to no layer are skipped; layers not named in ids are
// removed from the stack and returned. The active index is clamped.
func (s *Stack) Reorder(ids []string) (removed []*Layer) {
	byID := make(map[string]*Layer, len(s.layers))
	for _, l := range s.layers {
		byID[l.id] = l
	}
	ordered := make([]*Layer, 0, len(s.layers))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			ordered = append(ordered, l)
			delete(byID, id)
		}
	}
	for _, l := range s.layers {
		if _, left := byID[l.id]; left {
			removed = append(removed, l)
		}
	}
	s.layers = ordered
	s.clampActive()
	return removed
}

// ReplaceSelections swaps in a new set of saved selection masks.
func (s *Stack) ReplaceSelections(selections map[string]*paintcore.Mask) {
	s.selections = make(map[string]*paintcore.Mask, len(selections))
	for name, m := range selections {
		if m != nil {
			s.selections[name] = m
		}
	}
}

// MergeDown composites the layer with the given id into the nearest
// sibling with pixels below it, expanding the lower layer's buffer to the
// union of both bounding boxes first, then painting the upper layer with
// its blend mode and opacity. The upper layer is removed on success.
// Transformed layers cannot be merged.
func (s *Stack) MergeDown(id string) error {
	from := s.IndexOf(id)
	if from < 0 {
		return ErrLayerNotFound
	}
	upper := s.layers[from]
	var lower *Layer
	for i := from + 1; i < len(s.layers); i++ {
		if s.layers[i].parentID == upper.parentID && s.layers[i].kind.HasPixels() {
			lower = s.layers[i]
			break
		}
	}
	if lower == nil || !upper.kind.HasPixels() {
		return ErrNoMergeTarget
	}
	if upper.IsTransformed() || lower.IsTransformed() {
		return ErrTransformedMerge
	}

	if !upper.buf.IsEmpty() {
		lower.ExpandToInclude(upper.DocBounds())
		dx := int(math.Floor(upper.x)) - int(math.Floor(lower.x))
		dy := int(math.Floor(upper.y)) - int(math.Floor(lower.y))
		mode := upper.blend
		if mode == BlendPassthrough {
			mode = BlendNormal
		}
		Composite(lower.buf, upper.buf, dx, dy, mode, upper.opacity)
		lower.version++
	}

	s.Remove(id)
	s.active = s.IndexOf(lower.id)
	return nil
}

// clampActive keeps the active index valid after removals.
func (s *Stack) clampActive() {
	if len(s.layers) == 0 {
		s.active = -1
		return
	}
	if s.active >= len(s.layers) {
		s.active = len(s.layers) - 1
	}
}
