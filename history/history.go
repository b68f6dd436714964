package history

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gogpu/paintcore"
	"github.com/gogpu/paintcore/layer"
)

// Default limits for the undo stack.
const (
	// DefaultMaxEntries is the default maximum number of undo entries.
	DefaultMaxEntries = 64

	// DefaultMaxMemory is the default memory budget for the undo stack
	// in bytes.
	DefaultMaxMemory = 256 * 1024 * 1024
)

// ErrNoHistory is returned by Undo/Redo when the corresponding stack is
// empty. It is the only way either call can refuse to run.
var ErrNoHistory = errors.New("history: nothing to undo or redo")

// EventKind identifies a history notification.
type EventKind uint8

// Event kinds delivered to the notify callback.
const (
	EventPush EventKind = iota
	EventUndo
	EventRedo
	EventEvict
	EventClear
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventPush:
		return "Push"
	case EventUndo:
		return "Undo"
	case EventRedo:
		return "Redo"
	case EventEvict:
		return "Evict"
	case EventClear:
		return "Clear"
	default:
		return "Unknown"
	}
}

// Event is a fire-and-forget change notification. Label is the affected
// entry's label where one applies.
type Event struct {
	Kind  EventKind
	Label string
}

// Option configures a History during creation.
type Option func(*History)

// WithMaxEntries sets the maximum number of undo entries.
// Non-positive values fall back to the default.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// WithMaxMemory sets the undo stack memory budget in bytes.
// Non-positive values fall back to the default.
func WithMaxMemory(bytes int64) Option {
	return func(h *History) {
		if bytes > 0 {
			h.maxBytes = bytes
		}
	}
}

// WithNotify sets the change-notification callback. Events are delivered
// synchronously after every push, undo, redo, eviction, and clear; the
// callback must not call back into the History.
func WithNotify(fn func(Event)) Option {
	return func(h *History) { h.notify = fn }
}

// WithRenderRequest sets the render-request hook invoked after every
// undo, redo, and push. Fire-and-forget; correctness never depends on it.
func WithRenderRequest(fn func()) Option {
	return func(h *History) { h.requestRender = fn }
}

// History is the undo/redo engine for one layer stack. It owns the single
// current-capture slot and the two entry stacks exclusively; callers
// serialize all access (no internal locking, per the editor's cooperative
// single-flow model).
//
// The engine is a two-state machine, Idle and Capturing. BeginCapture
// moves Idle to Capturing; CommitCapture and AbortCapture move back.
// Calling BeginCapture while already Capturing force-commits the stale
// session — tolerated misuse, logged, never an error.
type History struct {
	stack *layer.Stack

	undo      []*Entry
	redo      []*Entry
	undoBytes int64
	redoBytes int64

	maxEntries int
	maxBytes   int64

	capture *session // nil when Idle

	notify        func(Event)
	requestRender func()
}

// New creates a History observing the given stack.
func New(stack *layer.Stack, opts ...Option) *History {
	h := &History{
		stack:      stack,
		maxEntries: DefaultMaxEntries,
		maxBytes:   DefaultMaxMemory,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsCapturing reports whether a capture session is open.
func (h *History) IsCapturing() bool { return h.capture != nil }

// BeginCapture opens a capture session for the named layers. bounds, when
// non-nil, is a document-space rect bounding the upcoming edit: each
// layer's before-pixels inside it are read immediately. When bounds is nil
// (a continuous gesture whose extent is not yet known) each layer takes a
// full-buffer snapshot instead and pixel extraction is deferred to commit.
//
// Unknown layer ids are skipped with a debug log. If a session is already
// open it is force-committed first.
func (h *History) BeginCapture(label string, layerIDs []string, bounds *paintcore.Rect) {
	if h.capture != nil {
		paintcore.Logger().Warn("history: BeginCapture while capturing, committing stale session",
			"stale", h.capture.label, "new", label)
		h.CommitCapture()
	}
	sess := newSession(label)
	structural := false
	for _, id := range layerIDs {
		l := h.stack.LayerByID(id)
		if l == nil {
			paintcore.Logger().Debug("history: capture target missing", "layer", id)
			continue
		}
		sess.add(l, bounds)
		if l.AutoFit() {
			structural = true
		}
	}
	h.capture = sess
	if structural {
		// Auto-fit commits change buffer dimensions, which only a
		// structural snapshot can invert.
		h.BeginStructuralChange()
	}
}

// ExpandBounds widens the open session's known capture rectangle to
// include a document-space point plus radius, for every captured layer.
// A no-op when Idle.
func (h *History) ExpandBounds(x, y float64, radius int) {
	if h.capture == nil {
		return
	}
	for _, id := range h.capture.order {
		l := h.stack.LayerByID(id)
		if l == nil {
			continue
		}
		h.capture.byLayer[id].expand(l, x, y, radius)
	}
}

// BeginStructuralChange snapshots full per-layer metadata for every layer
// currently in the stack, plus document size, active index, and saved
// selections. Call it before an operation that adds, deletes, reorders,
// regroups, or resizes layers. Idempotent within a session; a no-op when
// Idle (logged).
func (h *History) BeginStructuralChange() {
	if h.capture == nil {
		paintcore.Logger().Warn("history: BeginStructuralChange while idle")
		return
	}
	if h.capture.structure != nil {
		return
	}
	h.capture.structure = captureStructure(h.stack)
}

// CaptureEffects records the named layer's current effect list as the
// before-state of an effects change. A no-op when Idle or if the layer is
// unknown.
func (h *History) CaptureEffects(layerID string) {
	if h.capture == nil {
		return
	}
	if _, dup := h.capture.effectsBefore[layerID]; dup {
		return
	}
	l := h.stack.LayerByID(layerID)
	if l == nil {
		return
	}
	h.capture.effectsBefore[layerID] = l.Effects().Clone()
}

// NoteLayerDeleted registers a layer about to be (or just) removed from
// the stack, serializing its full content so undo can reconstruct it.
// Call it at deletion time, inside a structural session; BeginStructural-
// Change must already have captured the pre-deletion order.
func (h *History) NoteLayerDeleted(l *layer.Layer) {
	if h.capture == nil {
		paintcore.Logger().Warn("history: NoteLayerDeleted while idle", "layer", l.ID())
		return
	}
	if h.capture.structure == nil {
		paintcore.Logger().Warn("history: NoteLayerDeleted without structural snapshot",
			"layer", l.ID())
		h.BeginStructuralChange()
	}
	data, err := l.Serialize()
	if err != nil {
		paintcore.Logger().Warn("history: serializing deleted layer failed",
			"layer", l.ID(), "err", err)
		return
	}
	h.capture.deleted[l.ID()] = data
}

// NoteLayerResized registers a layer whose buffer is about to change
// dimensions, serializing its pre-operation state. Must be called before
// the resize, inside a structural session.
func (h *History) NoteLayerResized(l *layer.Layer) {
	if h.capture == nil {
		paintcore.Logger().Warn("history: NoteLayerResized while idle", "layer", l.ID())
		return
	}
	if h.capture.structure == nil {
		h.BeginStructuralChange()
	}
	if _, dup := h.capture.resized[l.ID()]; dup {
		return
	}
	data, err := l.Serialize()
	if err != nil {
		paintcore.Logger().Warn("history: serializing resized layer failed",
			"layer", l.ID(), "err", err)
		return
	}
	h.capture.resized[l.ID()] = data
}

// AbortCapture discards the in-flight session without producing an entry.
func (h *History) AbortCapture() {
	h.capture = nil
}

// CommitCapture closes the open session and pushes an entry holding the
// minimal diff of everything that changed: tight pixel patches for plain
// layers, the resized-layer store plus fitToContent for auto-fit layers,
// a structural before/after pair when one was begun, and effect-list
// diffs. A session that changed nothing pushes nothing. A no-op when Idle.
func (h *History) CommitCapture() {
	sess := h.capture
	if sess == nil {
		paintcore.Logger().Warn("history: CommitCapture while idle")
		return
	}
	h.capture = nil

	entry := &Entry{label: sess.label, timestamp: sess.started}

	for _, id := range sess.order {
		c := sess.byLayer[id]
		l := h.stack.LayerByID(id)
		if l == nil {
			// Deleted out of band mid-session; a structural snapshot plus
			// NoteLayerDeleted covers this, a patch cannot.
			paintcore.Logger().Debug("history: captured layer gone at commit", "layer", id)
			continue
		}

		if c.autoFit {
			h.commitAutoFit(sess, c, l)
			continue
		}

		if c.resizedSince(l) {
			h.commitResized(sess, c, l)
			continue
		}

		rect := c.rect
		if c.snapshot != nil && !c.hasRect {
			rect = l.Buffer().Rect()
		}
		rect = rect.Intersect(l.Buffer().Rect())
		if rect.IsEmpty() {
			continue
		}

		var before []uint8
		if c.snapshot != nil {
			before = c.snapshot.ReadRegion(rect)
		} else {
			before = c.before
			rect = c.rect
		}
		after := l.ReadPixels(rect)
		if p := shrinkToChanges(id, rect, before, after); p != nil {
			entry.patches = append(entry.patches, p)
		}
	}

	if sess.structure != nil {
		entry.structure = h.buildStructureChange(sess)
	}

	for id, before := range sess.effectsBefore {
		l := h.stack.LayerByID(id)
		if l == nil {
			continue
		}
		if before.Equal(l.Effects()) {
			continue
		}
		entry.effects = append(entry.effects, &EffectsChange{
			LayerID: id,
			Before:  before,
			After:   l.Effects().Clone(),
		})
	}

	if entry.isEmpty() {
		return
	}
	entry.computeMemory()

	// A new action invalidates redo entirely.
	h.redo = nil
	h.redoBytes = 0

	h.undo = append(h.undo, entry)
	h.undoBytes += entry.memory
	h.evict()

	h.emit(Event{Kind: EventPush, Label: entry.label})
	h.render()
}

// commitAutoFit stores the pre-operation serialized state of an auto-fit
// layer (from the deferred snapshot, since the live buffer is already
// mutated), then applies fitToContent. Auto-fit layers never produce
// patches: the fit changes buffer dimensions, which a fixed-rect patch
// cannot express.
func (h *History) commitAutoFit(sess *session, c *layerCapture, l *layer.Layer) {
	pre, err := c.preSerialized()
	if err != nil {
		paintcore.Logger().Warn("history: serializing auto-fit before-state failed",
			"layer", l.ID(), "err", err)
		return
	}
	sess.resized[l.ID()] = pre
	l.FitToContent()
}

// commitResized handles a plain layer whose buffer geometry changed during
// the session (grown by ExpandToInclude mid-stroke, for example). With a
// deferred snapshot the change is recorded structurally; a bounded capture
// has no pre-resize pixels outside its rect, so the change is dropped.
func (h *History) commitResized(sess *session, c *layerCapture, l *layer.Layer) {
	if c.snapshot == nil {
		paintcore.Logger().Warn("history: bounded capture resized mid-session, change not recorded",
			"layer", l.ID())
		return
	}
	if sess.structure == nil {
		paintcore.Logger().Warn("history: resized capture without structural snapshot",
			"layer", l.ID())
		return
	}
	// The session-begin snapshot beats any NoteLayerResized registration
	// taken later in the session: it predates every edit.
	pre, err := c.preSerialized()
	if err != nil {
		paintcore.Logger().Warn("history: serializing resized before-state failed",
			"layer", l.ID(), "err", err)
		return
	}
	sess.resized[l.ID()] = pre
}

// buildStructureChange pairs the session's structural before-snapshot with
// a freshly taken after-snapshot, filling both sides' deleted and resized
// stores.
func (h *History) buildStructureChange(sess *session) *StructureChange {
	before := sess.structure
	before.Deleted = sess.deleted
	for id, pre := range sess.resized {
		before.Resized[id] = pre
	}

	after := captureStructure(h.stack)
	for id := range before.Resized {
		l := h.stack.LayerByID(id)
		if l == nil {
			continue
		}
		post, err := l.Serialize()
		if err != nil {
			paintcore.Logger().Warn("history: serializing post-op state failed",
				"layer", id, "err", err)
			continue
		}
		after.Resized[id] = post
	}
	// Layers created by the operation must be serialized on the after
	// side: undo removes them from the stack, so redo has to rebuild them
	// from stored content.
	for _, m := range after.Metas {
		if before.has(m.ID) {
			continue
		}
		l := h.stack.LayerByID(m.ID)
		if l == nil {
			continue
		}
		data, err := l.Serialize()
		if err != nil {
			paintcore.Logger().Warn("history: serializing created layer failed",
				"layer", m.ID, "err", err)
			continue
		}
		after.Deleted[m.ID] = data
	}

	// Drop resize records that turned out to be no-ops so they neither
	// bloat the entry nor defeat no-op suppression.
	for id, pre := range before.Resized {
		if post, ok := after.Resized[id]; ok && bytes.Equal(pre, post) {
			delete(before.Resized, id)
			delete(after.Resized, id)
		}
	}

	if before.equal(after) {
		return nil
	}
	return &StructureChange{Before: before, After: after}
}

// Undo inverts the most recent entry and moves it to the redo stack.
// Patches whose target layer no longer exists are skipped silently; such
// skips and structural decode failures come back joined in the returned
// error while the operation still completes. Returns ErrNoHistory if the
// undo stack is empty.
func (h *History) Undo() error {
	if h.capture != nil {
		paintcore.Logger().Warn("history: Undo while capturing, committing stale session",
			"stale", h.capture.label)
		h.CommitCapture()
	}
	if len(h.undo) == 0 {
		return ErrNoHistory
	}
	entry := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.undoBytes -= entry.memory

	var errs []error

	// Patches invert in reverse commit order.
	for i := len(entry.patches) - 1; i >= 0; i-- {
		p := entry.patches[i]
		l := h.stack.LayerByID(p.LayerID)
		if l == nil {
			paintcore.Logger().Debug("history: undo patch target missing", "layer", p.LayerID)
			continue
		}
		l.WritePixels(p.Rect, p.Before)
	}
	if entry.structure != nil {
		if err := entry.structure.Before.restore(h.stack); err != nil {
			errs = append(errs, fmt.Errorf("history: undo %q: %w", entry.label, err))
		}
	}
	for _, ec := range entry.effects {
		if l := h.stack.LayerByID(ec.LayerID); l != nil {
			l.SetEffects(ec.Before.Clone())
		}
	}

	h.redo = append(h.redo, entry)
	h.redoBytes += entry.memory

	h.emit(Event{Kind: EventUndo, Label: entry.label})
	h.render()
	return errors.Join(errs...)
}

// Redo re-applies the most recently undone entry and moves it back to the
// undo stack. Symmetric to Undo, using the entries' after-data. Returns
// ErrNoHistory if the redo stack is empty.
func (h *History) Redo() error {
	if len(h.redo) == 0 {
		return ErrNoHistory
	}
	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.redoBytes -= entry.memory

	var errs []error

	for _, p := range entry.patches {
		l := h.stack.LayerByID(p.LayerID)
		if l == nil {
			paintcore.Logger().Debug("history: redo patch target missing", "layer", p.LayerID)
			continue
		}
		l.WritePixels(p.Rect, p.After)
	}
	if entry.structure != nil {
		if err := entry.structure.After.restore(h.stack); err != nil {
			errs = append(errs, fmt.Errorf("history: redo %q: %w", entry.label, err))
		}
	}
	for _, ec := range entry.effects {
		if l := h.stack.LayerByID(ec.LayerID); l != nil {
			l.SetEffects(ec.After.Clone())
		}
	}

	h.undo = append(h.undo, entry)
	h.undoBytes += entry.memory

	h.emit(Event{Kind: EventRedo, Label: entry.label})
	h.render()
	return errors.Join(errs...)
}

// JumpTo undoes or redoes repeatedly until the number of applied entries
// equals index on the conceptual undo+redo timeline (0 = everything
// undone). Clamped to the timeline's bounds.
func (h *History) JumpTo(index int) error {
	var errs []error
	for h.UndoCount() > index {
		if err := h.Undo(); err != nil {
			if errors.Is(err, ErrNoHistory) {
				break
			}
			errs = append(errs, err)
		}
	}
	for h.UndoCount() < index && h.CanRedo() {
		if err := h.Redo(); err != nil && !errors.Is(err, ErrNoHistory) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoCount returns the number of entries on the undo stack.
func (h *History) UndoCount() int { return len(h.undo) }

// RedoCount returns the number of entries on the redo stack.
func (h *History) RedoCount() int { return len(h.redo) }

// PeekUndoLabel returns the label of the entry Undo would invert, or "".
func (h *History) PeekUndoLabel() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].label
}

// PeekRedoLabel returns the label of the entry Redo would apply, or "".
func (h *History) PeekRedoLabel() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].label
}

// TotalMemory returns the exact sum of MemorySize over all entries in both
// stacks.
func (h *History) TotalMemory() int64 { return h.undoBytes + h.redoBytes }

// MaxEntries returns the undo stack's entry cap.
func (h *History) MaxEntries() int { return h.maxEntries }

// SetMaxEntries lowers or raises the entry cap at runtime, evicting
// immediately if the new cap is exceeded. Non-positive values are ignored.
func (h *History) SetMaxEntries(n int) {
	if n <= 0 {
		paintcore.Logger().Warn("history: ignoring non-positive entry cap", "n", n)
		return
	}
	h.maxEntries = n
	h.evict()
}

// MaxMemory returns the undo stack's memory budget in bytes.
func (h *History) MaxMemory() int64 { return h.maxBytes }

// SetMaxMemory lowers or raises the memory budget at runtime, evicting
// immediately if the new budget is exceeded. Non-positive values are
// ignored.
func (h *History) SetMaxMemory(bytes int64) {
	if bytes <= 0 {
		paintcore.Logger().Warn("history: ignoring non-positive memory cap", "bytes", bytes)
		return
	}
	h.maxBytes = bytes
	h.evict()
}

// Clear discards both stacks and any open capture session.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
	h.undoBytes = 0
	h.redoBytes = 0
	h.capture = nil
	h.emit(Event{Kind: EventClear})
}

// evict drops the oldest undo entries (FIFO) until both the entry cap and
// the memory budget are satisfied. The caps apply to the undo stack only.
func (h *History) evict() {
	for len(h.undo) > 0 && (len(h.undo) > h.maxEntries || h.undoBytes > h.maxBytes) {
		oldest := h.undo[0]
		h.undo = h.undo[1:]
		h.undoBytes -= oldest.memory
		h.emit(Event{Kind: EventEvict, Label: oldest.label})
	}
}

func (h *History) emit(e Event) {
	if h.notify != nil {
		h.notify(e)
	}
}

func (h *History) render() {
	if h.requestRender != nil {
		h.requestRender()
	}
}
