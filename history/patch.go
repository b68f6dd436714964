// Package history implements the undo/redo engine of paintcore: a
// capture/commit protocol producing immutable entries built from minimal
// pixel patches and structural snapshots, two exclusive stacks, and
// memory/count-bounded eviction.
package history

import (
	"bytes"

	"github.com/gogpu/paintcore"
)

// Patch is a stored before/after pixel rectangle sufficient to invert one
// pixel-level change to one layer. The rect is layer-local and lies within
// the layer's bounds at capture time. Before and After always differ;
// no-op patches are never constructed.
type Patch struct {
	LayerID string
	Rect    paintcore.Rect
	Before  []uint8
	After   []uint8
}

// MemorySize returns the bytes held by the patch pixel data.
func (p *Patch) MemorySize() int64 {
	return int64(len(p.Before) + len(p.After))
}

// shrinkToChanges diffs before/after pixel data covering rect and returns
// a patch holding only the tightest sub-rectangle that contains every
// differing pixel. Returns nil if the buffers are identical.
func shrinkToChanges(layerID string, rect paintcore.Rect, before, after []uint8) *Patch {
	if rect.IsEmpty() || len(before) != len(after) {
		return nil
	}
	minX, minY := rect.W, rect.H
	maxX, maxY := -1, -1
	for y := 0; y < rect.H; y++ {
		row := y * rect.W * 4
		if bytes.Equal(before[row:row+rect.W*4], after[row:row+rect.W*4]) {
			continue
		}
		for x := 0; x < rect.W; x++ {
			i := row + x*4
			if before[i] == after[i] && before[i+1] == after[i+1] &&
				before[i+2] == after[i+2] && before[i+3] == after[i+3] {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < 0 {
		return nil
	}

	tight := paintcore.NewRect(rect.X+minX, rect.Y+minY, maxX-minX+1, maxY-minY+1)
	return &Patch{
		LayerID: layerID,
		Rect:    tight,
		Before:  extractSubRect(before, rect, tight),
		After:   extractSubRect(after, rect, tight),
	}
}

// extractSubRect copies the pixels of sub out of data covering rect.
// sub must lie within rect.
func extractSubRect(data []uint8, rect, sub paintcore.Rect) []uint8 {
	out := make([]uint8, sub.W*sub.H*4)
	for y := 0; y < sub.H; y++ {
		srcOff := ((sub.Y-rect.Y+y)*rect.W + (sub.X - rect.X)) * 4
		dstOff := y * sub.W * 4
		copy(out[dstOff:dstOff+sub.W*4], data[srcOff:srcOff+sub.W*4])
	}
	return out
}

// blitRegion copies the pixels of src (covering srcRect) into dst
// (covering dstRect) wherever the rectangles overlap. Used when a bounded
// capture grows: previously captured before-pixels overwrite the freshly
// read area so the original values survive.
func blitRegion(dst []uint8, dstRect paintcore.Rect, src []uint8, srcRect paintcore.Rect) {
	overlap := dstRect.Intersect(srcRect)
	for y := overlap.Y; y < overlap.Y+overlap.H; y++ {
		srcOff := ((y-srcRect.Y)*srcRect.W + (overlap.X - srcRect.X)) * 4
		dstOff := ((y-dstRect.Y)*dstRect.W + (overlap.X - dstRect.X)) * 4
		copy(dst[dstOff:dstOff+overlap.W*4], src[srcOff:srcOff+overlap.W*4])
	}
}
