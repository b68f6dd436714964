package history

import "time"

// Entry is one committed, immutable undo step. An entry always carries at
// least one patch, a structural change, or an effects change; empty
// entries are discarded at commit time instead of being pushed.
type Entry struct {
	label     string
	timestamp time.Time
	patches   []*Patch
	structure *StructureChange
	effects   []*EffectsChange
	memory    int64
}

// Label returns the entry's user-facing action label.
func (e *Entry) Label() string { return e.label }

// Timestamp returns when the entry's capture session was begun.
func (e *Entry) Timestamp() time.Time { return e.timestamp }

// Patches returns the entry's pixel patches.
func (e *Entry) Patches() []*Patch { return e.patches }

// MemorySize returns the entry's memory cost: exact patch byte sizes plus
// estimates for structural and effects payloads.
func (e *Entry) MemorySize() int64 { return e.memory }

// isEmpty reports whether the entry records no change at all.
func (e *Entry) isEmpty() bool {
	return len(e.patches) == 0 && e.structure == nil && len(e.effects) == 0
}

// computeMemory fixes the entry's memory cost. Called once at commit; the
// entry is immutable afterwards.
func (e *Entry) computeMemory() {
	var size int64
	for _, p := range e.patches {
		size += p.MemorySize()
	}
	if e.structure != nil {
		size += e.structure.Before.memorySize()
		size += e.structure.After.memorySize()
	}
	for _, c := range e.effects {
		size += c.MemorySize()
	}
	e.memory = size
}
