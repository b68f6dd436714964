package history

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gogpu/paintcore"
	"github.com/gogpu/paintcore/layer"
)

// perLayerMetaEstimate approximates the in-memory cost of one layer's
// metadata inside a structural snapshot, for eviction accounting.
const perLayerMetaEstimate = 256

// StructureSnapshot captures enough non-pixel state to fully reconstruct
// the layer stack: ordered per-layer metadata, serialized content of
// deleted and resized layers, saved selection masks, and document size.
type StructureSnapshot struct {
	Metas       []layer.Meta
	ActiveIndex int
	DocW, DocH  int

	// Deleted holds the serialized form (including pixels) of layers that
	// exist in this snapshot's state but not on the other side of the
	// operation, keyed by layer id.
	Deleted map[string][]byte

	// Resized holds the serialized form of layers whose buffer dimensions
	// or offset changed across the operation, keyed by layer id.
	Resized map[string][]byte

	// Selections holds the saved selection masks, cloned at capture time.
	Selections map[string]*paintcore.Mask
}

// StructureChange pairs the before and after structural snapshots of one
// committed operation.
type StructureChange struct {
	Before *StructureSnapshot
	After  *StructureSnapshot
}

// captureStructure snapshots the current structural state of the stack.
func captureStructure(s *layer.Stack) *StructureSnapshot {
	snap := &StructureSnapshot{
		Metas:       make([]layer.Meta, 0, s.Len()),
		ActiveIndex: s.ActiveIndex(),
		Deleted:     make(map[string][]byte),
		Resized:     make(map[string][]byte),
		Selections:  make(map[string]*paintcore.Mask, len(s.Selections())),
	}
	snap.DocW, snap.DocH = s.DocSize()
	for _, l := range s.Layers() {
		snap.Metas = append(snap.Metas, l.Meta())
	}
	for name, m := range s.Selections() {
		snap.Selections[name] = m.Clone()
	}
	return snap
}

// has reports whether the snapshot contains a layer with the given id.
func (snap *StructureSnapshot) has(id string) bool {
	for _, m := range snap.Metas {
		if m.ID == id {
			return true
		}
	}
	return false
}

// restore applies the snapshot to the stack: recreates layers present in
// Deleted that are missing from the stack, restores the buffers and
// geometry of Resized layers, reinstates order, active index, document
// size, saved selections, and per-layer metadata. Layers on the stack that
// the snapshot does not know are removed (they were created by the
// operation being inverted).
//
// Restore is best-effort: a layer that fails to decode is skipped and the
// rest of the snapshot still applies. All such failures come back joined.
func (snap *StructureSnapshot) restore(s *layer.Stack) error {
	var errs []error

	for id, data := range snap.Deleted {
		if s.LayerByID(id) != nil {
			continue
		}
		l, err := layer.Deserialize(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("recreating layer %s: %w", id, err))
			continue
		}
		s.Insert(l, 0) // position is fixed by the reorder below
	}

	for id, data := range snap.Resized {
		l := s.LayerByID(id)
		if l == nil {
			continue
		}
		if err := l.RestoreSerialized(data); err != nil {
			errs = append(errs, fmt.Errorf("restoring layer %s: %w", id, err))
		}
	}

	ids := make([]string, len(snap.Metas))
	for i, m := range snap.Metas {
		ids[i] = m.ID
	}
	s.Reorder(ids)

	for _, m := range snap.Metas {
		if l := s.LayerByID(m.ID); l != nil {
			l.ApplyMeta(m)
		}
	}

	s.SetDocSize(snap.DocW, snap.DocH)
	s.SetActiveIndex(snap.ActiveIndex)

	selections := make(map[string]*paintcore.Mask, len(snap.Selections))
	for name, m := range snap.Selections {
		selections[name] = m.Clone()
	}
	s.ReplaceSelections(selections)

	return errors.Join(errs...)
}

// equal reports whether two snapshots describe the same structural state.
// Resized stores compare by serialized bytes (the encoding is
// deterministic for identical input).
func (snap *StructureSnapshot) equal(other *StructureSnapshot) bool {
	if len(snap.Metas) != len(other.Metas) ||
		snap.ActiveIndex != other.ActiveIndex ||
		snap.DocW != other.DocW || snap.DocH != other.DocH ||
		len(snap.Deleted) != len(other.Deleted) ||
		len(snap.Resized) != len(other.Resized) ||
		len(snap.Selections) != len(other.Selections) {
		return false
	}
	for i := range snap.Metas {
		if !snap.Metas[i].Equal(other.Metas[i]) {
			return false
		}
	}
	for id := range snap.Deleted {
		if _, ok := other.Deleted[id]; !ok {
			return false
		}
	}
	for id, pre := range snap.Resized {
		post, ok := other.Resized[id]
		if !ok || !bytes.Equal(pre, post) {
			return false
		}
	}
	for name, m := range snap.Selections {
		o, ok := other.Selections[name]
		if !ok || !m.Equal(o) {
			return false
		}
	}
	return true
}

// memorySize estimates the bytes held by the snapshot.
func (snap *StructureSnapshot) memorySize() int64 {
	size := int64(len(snap.Metas)) * perLayerMetaEstimate
	for _, m := range snap.Metas {
		size += m.Effects.MemorySize()
	}
	for _, data := range snap.Deleted {
		size += int64(len(data))
	}
	for _, data := range snap.Resized {
		size += int64(len(data))
	}
	for _, m := range snap.Selections {
		size += m.MemorySize()
	}
	return size
}

// EffectsChange records an effects-only change to one layer.
type EffectsChange struct {
	LayerID string
	Before  layer.EffectList
	After   layer.EffectList
}

// MemorySize estimates the bytes held by the change.
func (c *EffectsChange) MemorySize() int64 {
	return c.Before.MemorySize() + c.After.MemorySize()
}
