// Package paintcore provides the editing core of a layered raster/vector
// image editor: pixel buffers, layer geometry, an ordered layer hierarchy,
// and an undo/redo history engine built on region diffing and structural
// snapshots.
//
// # Overview
//
// paintcore is a headless library. It owns no rendering, file format, or UI
// concern; those collaborate with the core through the layer and history
// packages. The root package holds the shared primitives:
//
//   - Pixmap: a growable RGBA pixel buffer with content-preserving resize
//   - Rect, Point, Matrix: integer pixel rectangles and 2D affine transforms
//   - Mask: an 8-bit alpha mask used for saved selections
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/paintcore/layer"
//	    "github.com/gogpu/paintcore/history"
//	)
//
//	stack := layer.NewStack(800, 600)
//	l := layer.NewRaster("background", 800, 600)
//	stack.Insert(l, 0)
//
//	h := history.New(stack)
//	h.BeginCapture("paint", []string{l.ID()}, nil)
//	// ... mutate l's pixels ...
//	h.CommitCapture()
//	h.Undo()
//
// # Logging
//
// paintcore produces no log output by default. Call SetLogger to enable
// structured logging for tolerated-misuse warnings and skipped-patch
// diagnostics.
package paintcore
