package layer

import (
	"math"
	"testing"

	"github.com/gogpu/paintcore"
)

func TestLayerToDoc_FastPath(t *testing.T) {
	l := NewRaster("l", 4, 4)
	l.SetOffset(10, 20)

	dx, dy := l.LayerToDoc(1, 2)
	if dx != 11 || dy != 22 {
		t.Errorf("LayerToDoc(1,2) = (%v,%v), want (11,22)", dx, dy)
	}
	lx, ly := l.DocToLayer(11, 22)
	if lx != 1 || ly != 2 {
		t.Errorf("DocToLayer(11,22) = (%v,%v), want (1,2)", lx, ly)
	}
}

func TestLayerToDoc_TransformedRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		rotation float64
		sx, sy   float64
	}{
		{"rotated", 37, 1, 1},
		{"scaled", 0, 2, 0.5},
		{"rotated and scaled", -15, 1.5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewRaster("l", 8, 6)
			l.SetOffset(5, -3)
			l.SetRotation(tt.rotation)
			l.SetScaleFactors(tt.sx, tt.sy)

			for _, p := range [][2]float64{{0, 0}, {4, 3}, {7.5, 5.5}} {
				dx, dy := l.LayerToDoc(p[0], p[1])
				lx, ly := l.DocToLayer(dx, dy)
				if math.Abs(lx-p[0]) > 1e-9 || math.Abs(ly-p[1]) > 1e-9 {
					t.Errorf("round trip of (%v,%v) = (%v,%v)", p[0], p[1], lx, ly)
				}
			}
		})
	}
}

func TestLayer_RotationAroundCenter(t *testing.T) {
	l := NewRaster("l", 10, 10)
	l.SetOffset(100, 50)
	l.SetRotation(123)

	// The buffer center is the rotation pivot, so it never moves.
	dx, dy := l.LayerToDoc(5, 5)
	if math.Abs(dx-105) > 1e-9 || math.Abs(dy-55) > 1e-9 {
		t.Errorf("center maps to (%v,%v), want (105,55)", dx, dy)
	}
}

func TestExpandToInclude_PreservesDocPosition(t *testing.T) {
	l := NewRaster("l", 4, 4)
	l.SetOffset(10, 10)
	l.SetPixel(0, 0, paintcore.RGB(1, 0, 0)) // doc (10,10)

	l.ExpandToInclude(paintcore.NewRect(8, 8, 2, 2))

	if l.Width() != 6 || l.Height() != 6 {
		t.Fatalf("dims = %dx%d, want 6x6", l.Width(), l.Height())
	}
	x, y := l.Offset()
	if x != 8 || y != 8 {
		t.Fatalf("offset = (%v,%v), want (8,8)", x, y)
	}
	// The red pixel still sits at doc (10,10), now local (2,2).
	if l.PixelAt(2, 2).A != 1 {
		t.Error("existing pixel lost its document position")
	}
}

func TestExpandToInclude_NoGrowthWhenCovered(t *testing.T) {
	l := NewRaster("l", 8, 8)
	l.SetOffset(0, 0)
	v := l.Version()
	l.ExpandToInclude(paintcore.NewRect(2, 2, 3, 3))
	if l.Width() != 8 || l.Height() != 8 {
		t.Errorf("covered expand changed dims to %dx%d", l.Width(), l.Height())
	}
	if l.Version() != v {
		t.Error("covered expand should not bump the version")
	}
}

func TestExpandToInclude_EmptyLayer(t *testing.T) {
	l := NewRaster("l", 0, 0)
	l.ExpandToInclude(paintcore.NewRect(5, 6, 3, 2))
	if l.Width() != 3 || l.Height() != 2 {
		t.Errorf("dims = %dx%d, want 3x2", l.Width(), l.Height())
	}
	x, y := l.Offset()
	if x != 5 || y != 6 {
		t.Errorf("offset = (%v,%v), want (5,6)", x, y)
	}
}

func TestExpandToInclude_TransformedNoOp(t *testing.T) {
	l := NewRaster("l", 4, 4)
	l.SetRotation(45)
	l.ExpandToInclude(paintcore.NewRect(-10, -10, 2, 2))
	if l.Width() != 4 || l.Height() != 4 {
		t.Error("transformed layer must not expand via ExpandToInclude")
	}
}

func TestExpandToIncludeDocPoint_Rotated(t *testing.T) {
	l := NewRaster("l", 10, 10)
	l.SetOffset(0, 0)
	l.SetRotation(90)
	l.SetPixel(4, 4, paintcore.RGB(1, 0, 0))

	// Doc position of the content pixel before growing.
	beforeX, beforeY := l.LayerToDoc(4, 4)

	l.ExpandToIncludeDocPoint(25, 5, 2)

	if l.Width() <= 10 && l.Height() <= 10 {
		t.Fatal("buffer should have grown")
	}
	// The old content moved inside the buffer but must keep its document
	// position once the rotation is reapplied.
	cb, ok := l.Buffer().ContentBounds()
	if !ok {
		t.Fatal("content pixel lost")
	}
	afterX, afterY := l.LayerToDoc(float64(cb.X), float64(cb.Y))
	if math.Abs(afterX-beforeX) > 1e-6 || math.Abs(afterY-beforeY) > 1e-6 {
		t.Errorf("content doc position drifted: (%v,%v) -> (%v,%v)",
			beforeX, beforeY, afterX, afterY)
	}
}

func TestExpandToIncludeDocPoint_AmortizingPad(t *testing.T) {
	l := NewRaster("l", 10, 10)
	l.SetRotation(30)

	l.ExpandToIncludeDocPoint(30, 5, 1)
	w1, h1 := l.Width(), l.Height()

	// A nearby point should land inside the padded area: no reallocation.
	l.ExpandToIncludeDocPoint(32, 5, 1)
	if l.Width() != w1 || l.Height() != h1 {
		t.Error("second nearby expand should be absorbed by padding")
	}
}

func TestFitToContent(t *testing.T) {
	l := NewRaster("l", 6, 6)
	l.SetOffset(10, 10)
	l.SetPixel(2, 3, paintcore.RGB(0, 1, 0))

	l.FitToContent()

	if l.Width() != 1 || l.Height() != 1 {
		t.Fatalf("dims = %dx%d, want 1x1", l.Width(), l.Height())
	}
	x, y := l.Offset()
	if x != 12 || y != 13 {
		t.Errorf("offset = (%v,%v), want (12,13)", x, y)
	}
	if l.PixelAt(0, 0).A != 1 {
		t.Error("content pixel lost in fit")
	}
}

func TestFitToContent_EmptyCollapses(t *testing.T) {
	l := NewRaster("l", 6, 6)
	l.FitToContent()
	if !l.Buffer().IsEmpty() {
		t.Error("fully transparent layer should collapse to 0x0")
	}
	// Fill and measure on a collapsed layer are no-ops, not panics.
	l.FillRect(paintcore.NewRect(0, 0, 4, 4), paintcore.RGB(1, 0, 0))
	if _, ok := l.ContentBounds(); ok {
		t.Error("collapsed layer should report no content")
	}
}

func TestFitToContent_TransformedNoOp(t *testing.T) {
	l := NewRaster("l", 6, 6)
	l.SetScaleFactors(2, 2)
	l.SetPixel(2, 2, paintcore.RGB(1, 0, 0))
	l.FitToContent()
	if l.Width() != 6 || l.Height() != 6 {
		t.Error("FitToContent must be a no-op on a scaled layer")
	}
}

func TestTrimToContent_Padding(t *testing.T) {
	l := NewRaster("l", 6, 6)
	l.SetOffset(10, 10)
	l.SetPixel(2, 3, paintcore.RGB(1, 0, 0))

	l.TrimToContent(1)

	if l.Width() != 3 || l.Height() != 3 {
		t.Fatalf("dims = %dx%d, want 3x3", l.Width(), l.Height())
	}
	x, y := l.Offset()
	if x != 11 || y != 12 {
		t.Errorf("offset = (%v,%v), want (11,12)", x, y)
	}
	if l.PixelAt(1, 1).A != 1 {
		t.Error("content pixel lost in trim")
	}
}

func TestDocBounds_Transformed(t *testing.T) {
	l := NewRaster("l", 10, 4)
	l.SetOffset(0, 0)
	l.SetRotation(90)

	b := l.DocBounds()
	// A 10x4 buffer rotated a quarter turn spans 4x10 around its center.
	if b.W < 4 || b.W > 5 || b.H < 10 || b.H > 11 {
		t.Errorf("rotated doc bounds = %+v, want ~4x10", b)
	}
}
