package paintcore

import (
	"math"
	"testing"
)

func TestMatrix_InvertRoundTrip(t *testing.T) {
	m := Translate(10, 20).
		Multiply(RotateDegrees(30)).
		Multiply(Scale(2, 0.5))

	p := Pt(3, 7)
	q := m.Invert().TransformPoint(m.TransformPoint(p))

	if math.Abs(q.X-p.X) > 1e-9 || math.Abs(q.Y-p.Y) > 1e-9 {
		t.Errorf("inverse round trip = %+v, want %+v", q, p)
	}
}

func TestMatrix_Identity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity() should report IsIdentity")
	}
	p := Pt(4, -2)
	if got := Identity().TransformPoint(p); got != p {
		t.Errorf("identity transform moved point: %+v", got)
	}
}

func TestMatrix_RotateDegrees(t *testing.T) {
	// A quarter turn maps (1, 0) to (0, 1).
	p := RotateDegrees(90).TransformPoint(Pt(1, 0))
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y-1) > 1e-9 {
		t.Errorf("90 degree rotation of (1,0) = %+v, want (0,1)", p)
	}
}
